package directoryhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/directory"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
)

type Handler struct {
	Store *directory.Store
	Perms middleware.PermissionStore
}

func NewHandler(store *directory.Store, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/departments", h.handleListDepartments)
	r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/employees/{employeeID}", h.handleGetEmployee)
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "directory_failed", "failed to list departments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Store.EmployeeByID(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "directory_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employee, middleware.GetRequestID(r.Context()))
}
