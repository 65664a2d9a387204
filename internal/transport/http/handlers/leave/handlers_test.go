package leavehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/ledger"
	"leavedesk/internal/transport/http/api"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) api.Envelope {
	t.Helper()
	var envelope api.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

func TestWriteDomainErrorValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, &leave.ValidationError{Field: "toDate", Reason: "must be on or after fromDate"}, "rid")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	envelope := decode(t, rec)
	if envelope.Error == nil || envelope.Error.Code != "validation_error" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestWriteDomainErrorBalanceConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, &leave.ConflictError{
		Check:     "balance",
		Requested: decimal.NewFromInt(5),
		Available: decimal.NewFromInt(2),
	}, "rid")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	envelope := decode(t, rec)
	if envelope.Error.Code != "leave_conflict" {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if envelope.Error.Details["requested"] != "5" || envelope.Error.Details["available"] != "2" {
		t.Fatalf("unexpected details: %+v", envelope.Error.Details)
	}
}

func TestWriteDomainErrorAttendanceConflictCarriesDates(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, &leave.ConflictError{
		Check: "attendance",
		Dates: []time.Time{time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)},
	}, "rid")

	envelope := decode(t, rec)
	dates, ok := envelope.Error.Details["dates"].([]any)
	if !ok || len(dates) != 1 || dates[0] != "2025-03-11" {
		t.Fatalf("unexpected dates detail: %+v", envelope.Error.Details)
	}
}

func TestWriteDomainErrorState(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, &leave.StateError{Current: leave.StatusApproved, Reason: "request is already approved"}, "rid")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	envelope := decode(t, rec)
	if envelope.Error.Details["currentStatus"] != "approved" {
		t.Fatalf("unexpected details: %+v", envelope.Error.Details)
	}
}

func TestWriteDomainErrorNotFoundAndForbidden(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, leave.ErrNotFound, "rid")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	writeDomainError(rec, leave.ErrForbidden, "rid")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestWriteDomainErrorConsistencyStaysGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, &ledger.ConsistencyError{Op: "debit", EmployeeID: "e1"}, "rid")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	envelope := decode(t, rec)
	if envelope.Error.Details != nil {
		t.Fatalf("consistency detail must not leak to the caller: %+v", envelope.Error.Details)
	}
}

func TestWriteDomainErrorUnknown(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, errors.New("boom"), "rid")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
