package notificationshandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
)

type Handler struct {
	Service *notifications.Service
}

func NewHandler(service *notifications.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	limit := parseIntDefault(r.URL.Query().Get("limit"), 25)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

	items, err := h.Service.List(r.Context(), user.UserID, limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notifications_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}
	total, err := h.Service.Count(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notifications_failed", "failed to count notifications", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"notifications": items, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.MarkRead(r.Context(), user.UserID, notificationID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "notifications_failed", "failed to mark notification read", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"id": notificationID}, middleware.GetRequestID(r.Context()))
}

func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
