package leavehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"leavedesk/internal/domain/audit"
	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/holiday"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/ledger"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Service  *leave.Service
	Types    *leave.Store
	Holidays *holiday.Store
	Quotas   *ledger.Service
	Perms    middleware.PermissionStore
	Audit    *audit.Service
}

func NewHandler(service *leave.Service, types *leave.Store, holidays *holiday.Store, quotas *ledger.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Types: types, Holidays: holidays, Quotas: quotas, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermQuotaAssign, h.Perms)).Post("/types", h.handleCreateType)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/holidays", h.handleListHolidays)
		r.With(middleware.RequirePermission(auth.PermHolidayWrite, h.Perms)).Post("/holidays", h.handleCreateHoliday)
		r.With(middleware.RequirePermission(auth.PermHolidayWrite, h.Perms)).Delete("/holidays/{holidayID}", h.handleDeleteHoliday)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/quotas", h.handleListQuotas)
		r.With(middleware.RequirePermission(auth.PermQuotaAssign, h.Perms)).Post("/quotas", h.handleAssignQuota)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests", h.handleSubmitRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Patch("/requests/{requestID}", h.handleUpdateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
	})
}

// writeDomainError maps the engine's error taxonomy onto HTTP. Consistency
// violations stay generic for the caller; operators get the detail from the
// ledger's own logging.
func writeDomainError(w http.ResponseWriter, err error, requestID string) {
	var validation *leave.ValidationError
	if errors.As(err, &validation) {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", validation.Error(),
			map[string]any{"field": validation.Field}, requestID)
		return
	}
	var conflict *leave.ConflictError
	if errors.As(err, &conflict) {
		details := map[string]any{"check": conflict.Check}
		if len(conflict.Dates) > 0 {
			dates := make([]string, 0, len(conflict.Dates))
			for _, d := range conflict.Dates {
				dates = append(dates, d.Format("2006-01-02"))
			}
			details["dates"] = dates
		}
		if len(conflict.Holidays) > 0 {
			details["holidays"] = conflict.Holidays
		}
		if conflict.Check == "balance" {
			details["requested"] = conflict.Requested.String()
			details["available"] = conflict.Available.String()
		}
		api.FailWithDetails(w, http.StatusConflict, "leave_conflict", conflict.Error(), details, requestID)
		return
	}
	var state *leave.StateError
	if errors.As(err, &state) {
		api.FailWithDetails(w, http.StatusConflict, "invalid_state", state.Error(),
			map[string]any{"currentStatus": string(state.Current)}, requestID)
		return
	}
	if errors.Is(err, leave.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestID)
		return
	}
	if errors.Is(err, leave.ErrForbidden) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to act on this request", requestID)
		return
	}
	var consistency *ledger.ConsistencyError
	if errors.As(err, &consistency) {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "leave transition failed", requestID)
		return
	}
	api.Fail(w, http.StatusInternalServerError, "internal_error", "unexpected error", requestID)
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Types.ListTypes(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_types_failed", "failed to list leave types", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	var payload leave.LeaveType
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "name is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Types.CreateType(r.Context(), payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_type_create_failed", "failed to create leave type", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

type holidayPayload struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (h *Handler) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	out, err := h.Holidays.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "holiday_list_failed", "failed to list holidays", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateHoliday(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload holidayPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "name is required")
	startDate, _ := validator.Date("startDate", payload.StartDate)
	endDate, _ := validator.Date("endDate", payload.EndDate)
	validator.DateOrder("startDate", startDate, "endDate", endDate)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Holidays.Create(r.Context(), payload.Name, startDate, endDate)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "holiday_create_failed", "failed to create holiday", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "leave.holiday.create", "holiday", id, nil, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteHoliday(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	holidayID := chi.URLParam(r, "holidayID")
	if err := h.Holidays.Delete(r.Context(), holidayID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "holiday_delete_failed", "failed to delete holiday", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "leave.holiday.delete", "holiday", holidayID, nil, nil)
	api.Success(w, map[string]string{"id": holidayID}, middleware.GetRequestID(r.Context()))
}

type quotaPayload struct {
	EmployeeID  string `json:"employeeId"`
	LeaveTypeID string `json:"leaveTypeId"`
	Year        int    `json:"year"`
	TotalDays   string `json:"totalDays"`
}

func (h *Handler) handleListQuotas(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := r.URL.Query().Get("employeeId")
	if employeeID == "" || user.RoleName != auth.RoleAdmin {
		employeeID = user.EmployeeID
	}
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			year = parsed
		}
	}

	entries, err := h.Quotas.ListByEmployee(r.Context(), employeeID, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "quota_list_failed", "failed to list quotas", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignQuota(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload quotaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Required("employeeId", payload.EmployeeID, "employeeId is required")
	validator.Required("leaveTypeId", payload.LeaveTypeID, "leaveTypeId is required")
	validator.Required("totalDays", payload.TotalDays, "totalDays is required")
	if payload.Year == 0 {
		payload.Year = time.Now().Year()
	}
	totalDays, err := decimal.NewFromString(payload.TotalDays)
	if err != nil || totalDays.IsNegative() {
		validator.Add("totalDays", "must be a non-negative decimal")
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	entry, err := h.Quotas.Assign(r.Context(), payload.EmployeeID, payload.LeaveTypeID, payload.Year, totalDays)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "quota_assign_failed", "failed to assign quota", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "leave.quota.assign", "leave_quota", entry.ID, nil, payload)
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

type submitPayload struct {
	LeaveTypeID string `json:"leaveTypeId"`
	FromDate    string `json:"fromDate"`
	ToDate      string `json:"toDate"`
	HalfDay     bool   `json:"halfDay"`
	Reason      string `json:"reason"`
}

func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.EmployeeID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "employee account required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Required("leaveTypeId", payload.LeaveTypeID, "leaveTypeId is required")
	fromDate, _ := validator.Date("fromDate", payload.FromDate)
	toDate, _ := validator.Date("toDate", payload.ToDate)
	validator.DateOrder("fromDate", fromDate, "toDate", toDate)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.Submit(r.Context(), user.EmployeeID, payload.LeaveTypeID, fromDate, toDate, payload.HalfDay, payload.Reason)
	if err != nil {
		writeDomainError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "leave.request.submit", "leave_request", created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	filter := leave.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  parseIntDefault(r.URL.Query().Get("limit"), 25),
		Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
	}
	switch user.RoleName {
	case auth.RoleAdmin:
		filter.EmployeeID = r.URL.Query().Get("employeeId")
	case auth.RoleManager:
		if r.URL.Query().Get("assigned") == "true" {
			filter.ApproverID = user.EmployeeID
		} else {
			filter.EmployeeID = user.EmployeeID
		}
	default:
		filter.EmployeeID = user.EmployeeID
	}

	requests, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leave requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"requests": requests, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		writeDomainError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type decisionPayload struct {
	Comments string `json:"comments"`
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	var payload decisionPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	before, _ := h.Service.Get(r.Context(), requestID)
	updated, err := h.Service.Approve(r.Context(), requestID, user.EmployeeID, payload.Comments)
	if err != nil {
		writeDomainError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "leave.request.approve", "leave_request", requestID, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	var payload decisionPayload
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	before, _ := h.Service.Get(r.Context(), requestID)
	updated, err := h.Service.Reject(r.Context(), requestID, user.EmployeeID, payload.Comments)
	if err != nil {
		writeDomainError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "leave.request.reject", "leave_request", requestID, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

type updatePayload struct {
	FromDate *string `json:"fromDate"`
	ToDate   *string `json:"toDate"`
	HalfDay  *bool   `json:"halfDay"`
	Reason   *string `json:"reason"`
	Comments *string `json:"comments"`
	Status   *string `json:"status"`
}

func (h *Handler) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	patch := leave.UpdatePatch{
		HalfDay:  payload.HalfDay,
		Reason:   payload.Reason,
		Comments: payload.Comments,
	}
	if payload.FromDate != nil {
		if parsed, ok := validator.Date("fromDate", *payload.FromDate); ok {
			patch.FromDate = &parsed
		}
	}
	if payload.ToDate != nil {
		if parsed, ok := validator.Date("toDate", *payload.ToDate); ok {
			patch.ToDate = &parsed
		}
	}
	if payload.Status != nil {
		status, err := leave.ParseStatus(*payload.Status)
		if err != nil {
			validator.Add("status", "must be one of open, approved, rejected")
		} else {
			patch.Status = &status
		}
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	before, _ := h.Service.Get(r.Context(), requestID)
	updated, err := h.Service.Update(r.Context(), requestID, user.EmployeeID, patch)
	if err != nil {
		writeDomainError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "leave.request.update", "leave_request", requestID, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, action, entityType, entityID, middleware.GetRequestID(r.Context()), before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
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
