package reportshandler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/reports"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports/leave", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermReportsRead, h.Perms))
		r.Get("/balances", h.handleBalances)
		r.Get("/calendar.pdf", h.handleCalendarPDF)
	})
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_year", "year must be an integer", middleware.GetRequestID(r.Context()))
			return
		}
		year = parsed
	}

	rows, err := h.Service.Balances(r.Context(), year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build balance report", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"year": year, "balances": rows}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCalendarPDF(w http.ResponseWriter, r *http.Request) {
	validator := shared.NewValidator()
	from, _ := validator.Date("from", r.URL.Query().Get("from"))
	to, _ := validator.Date("to", r.URL.Query().Get("to"))
	validator.DateOrder("from", from, "to", to)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	pdf, err := h.Service.CalendarPDF(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render leave calendar", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=leave-calendar-%s-%s.pdf",
		from.Format("2006-01-02"), to.Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
