package attendancehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/attendance"
	"leavedesk/internal/domain/auth"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Store *attendance.Store
	Perms middleware.PermissionStore
	Now   func() time.Time
}

func NewHandler(store *attendance.Store, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Perms: perms, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceRead, h.Perms)).Get("/", h.handleListRecords)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/check-in", h.handleCheckIn)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite, h.Perms)).Post("/check-out", h.handleCheckOut)
		r.With(middleware.RequirePermission(auth.PermQuotaAssign, h.Perms)).Post("/", h.handleCreateManual)
		r.With(middleware.RequirePermission(auth.PermQuotaAssign, h.Perms)).Delete("/{recordID}", h.handleDeleteRecord)
	})
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.EmployeeID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "employee account required", middleware.GetRequestID(r.Context()))
		return
	}

	now := h.Now().UTC()
	record, err := h.Store.CheckIn(r.Context(), user.EmployeeID, midnight(now), now)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "check_in_failed", "failed to record check-in", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.EmployeeID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "employee account required", middleware.GetRequestID(r.Context()))
		return
	}

	now := h.Now().UTC()
	record, err := h.Store.CheckOut(r.Context(), user.EmployeeID, midnight(now), now)
	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			api.Fail(w, http.StatusConflict, "not_checked_in", "no check-in record for today", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "check_out_failed", "failed to record check-out", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	employeeID := r.URL.Query().Get("employeeId")
	if employeeID == "" || user.RoleName == auth.RoleEmployee {
		employeeID = user.EmployeeID
	}

	validator := shared.NewValidator()
	from, _ := validator.Date("from", r.URL.Query().Get("from"))
	to, _ := validator.Date("to", r.URL.Query().Get("to"))
	validator.DateOrder("from", from, "to", to)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	records, err := h.Store.ListRange(r.Context(), employeeID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance records", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

type manualPayload struct {
	EmployeeID string   `json:"employeeId"`
	Day        string   `json:"day"`
	Status     string   `json:"status"`
	TotalHours *float64 `json:"totalHours"`
}

func (h *Handler) handleCreateManual(w http.ResponseWriter, r *http.Request) {
	var payload manualPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	validator.Required("employeeId", payload.EmployeeID, "employeeId is required")
	day, _ := validator.Date("day", payload.Day)
	status, err := attendance.ParseStatus(payload.Status)
	if err != nil {
		validator.Add("status", "unknown attendance status")
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	record, err := h.Store.CreateManual(r.Context(), payload.EmployeeID, day, status, payload.TotalHours)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_create_failed", "failed to create attendance record", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, record, middleware.GetRequestID(r.Context()))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	if err := h.Store.DeleteByID(r.Context(), recordID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_delete_failed", "failed to delete attendance record", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"id": recordID}, middleware.GetRequestID(r.Context()))
}
