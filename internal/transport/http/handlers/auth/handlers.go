package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/directory"
	"leavedesk/internal/platform/config"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
)

type Handler struct {
	Users     *auth.Store
	Directory *directory.Store
	Cfg       config.Config
}

func NewHandler(users *auth.Store, dir *directory.Store, cfg config.Config) *Handler {
	return &Handler{Users: users, Directory: dir, Cfg: cfg}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
	})
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Email == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email and password are required", middleware.GetRequestID(r.Context()))
		return
	}

	user, err := h.Users.UserByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to log in", middleware.GetRequestID(r.Context()))
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", middleware.GetRequestID(r.Context()))
		return
	}

	ttl := h.Cfg.JWTTTL
	token, err := auth.GenerateToken(h.Cfg.JWTSecret, auth.Claims{
		UserID:     user.ID,
		EmployeeID: user.EmployeeID,
		RoleID:     user.RoleID,
		RoleName:   user.RoleName,
	}, ttl)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, loginResponse{Token: token, ExpiresAt: time.Now().Add(ttl), Role: user.RoleName}, middleware.GetRequestID(r.Context()))
}

// handleLogout exists for client symmetry. Tokens are stateless; the client
// discards its copy.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	response := map[string]any{
		"userId":     user.UserID,
		"employeeId": user.EmployeeID,
		"roleId":     user.RoleID,
		"role":       user.RoleName,
	}
	if employee, err := h.Directory.EmployeeByUserID(r.Context(), user.UserID); err == nil {
		response["employee"] = employee
	}
	api.Success(w, response, middleware.GetRequestID(r.Context()))
}
