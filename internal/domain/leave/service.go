package leave

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"leavedesk/internal/domain/directory"
	"leavedesk/internal/domain/ledger"
	"leavedesk/internal/platform/db"
)

const (
	fullDayHours = 8.0
	halfDayHours = 4.0
)

type RequestStore interface {
	Create(ctx context.Context, req Request) (Request, error)
	ByID(ctx context.Context, requestID string) (Request, error)
	SetDecision(ctx context.Context, requestID string, prior, status Status, approverID string, comments *string, decidedAt time.Time) error
	UpdateFields(ctx context.Context, req Request, prior Status) error
	List(ctx context.Context, filter ListFilter) ([]Request, int, error)
	TypeExists(ctx context.Context, leaveTypeID string) (bool, error)
}

type DirectoryAPI interface {
	EmployeeByID(ctx context.Context, employeeID string) (directory.Employee, error)
	RoleByID(ctx context.Context, roleID string) (directory.Role, error)
	Snapshot(ctx context.Context) (directory.Snapshot, error)
}

type QuotaLedger interface {
	Debit(ctx context.Context, employeeID, leaveTypeID string, year int, days decimal.Decimal) (ledger.Entry, error)
	Credit(ctx context.Context, employeeID, leaveTypeID string, year int, days decimal.Decimal) (ledger.Entry, error)
}

type AttendanceSync interface {
	UpsertOnLeave(ctx context.Context, employeeID string, day time.Time, hours float64) error
	DeleteOnLeave(ctx context.Context, employeeID string, day time.Time) error
}

// Notifier delivers best-effort notifications. Failures are logged and
// never roll back or block a transition.
type Notifier interface {
	Notify(ctx context.Context, employeeID, kind, title, body string) error
}

// Service drives a leave request through Open -> Approved | Rejected,
// including the Approved -> Rejected reversal. Every transition's ledger
// and attendance writes run inside one transaction so a partial failure
// never leaves the three records disagreeing.
type Service struct {
	Requests   RequestStore
	Directory  DirectoryAPI
	Ledger     QuotaLedger
	Attendance AttendanceSync
	Validator  *Validator
	Tx         db.Runner
	Notifier   Notifier
	Now        func() time.Time
}

func NewService(requests RequestStore, dir DirectoryAPI, quotas QuotaLedger, att AttendanceSync, validator *Validator, tx db.Runner, notifier Notifier) *Service {
	return &Service{
		Requests:   requests,
		Directory:  dir,
		Ledger:     quotas,
		Attendance: att,
		Validator:  validator,
		Tx:         tx,
		Notifier:   notifier,
		Now:        time.Now,
	}
}

// Submit validates a proposed request, resolves its approver and persists
// it as Open. On validator failure nothing is written.
func (s *Service) Submit(ctx context.Context, applicantID, leaveTypeID string, from, to time.Time, halfDay bool, reason string) (Request, error) {
	from, to = Day(from), Day(to)
	if from.IsZero() || to.IsZero() {
		return Request{}, &ValidationError{Field: "fromDate", Reason: "fromDate and toDate are required"}
	}
	if to.Before(from) {
		return Request{}, &ValidationError{Field: "toDate", Reason: "must be on or after fromDate"}
	}

	applicant, err := s.Directory.EmployeeByID(ctx, applicantID)
	if err != nil {
		return Request{}, err
	}
	exists, err := s.Requests.TypeExists(ctx, leaveTypeID)
	if err != nil {
		return Request{}, err
	}
	if !exists {
		return Request{}, &ValidationError{Field: "leaveTypeId", Reason: "unknown leave type"}
	}

	snap, err := s.Directory.Snapshot(ctx)
	if err != nil {
		return Request{}, err
	}
	approverID := ResolveApprover(snap, applicant)

	if err := s.Validator.Validate(ctx, applicantID, leaveTypeID, from, to, halfDay); err != nil {
		return Request{}, err
	}

	created, err := s.Requests.Create(ctx, Request{
		EmployeeID:  applicantID,
		LeaveTypeID: leaveTypeID,
		FromDate:    from,
		ToDate:      to,
		HalfDay:     halfDay,
		Reason:      reason,
		ApproverID:  approverID,
		Status:      StatusOpen,
	})
	if err != nil {
		return Request{}, err
	}

	if approverID != nil {
		s.notify(ctx, *approverID, "leave_submitted", "Leave request submitted",
			"A leave request from "+applicant.FirstName+" "+applicant.LastName+" is waiting for your review.")
	}
	return created, nil
}

// Approve transitions a non-approved request to Approved: debit the quota
// ledger, synthesize on-leave attendance for every day in range, record the
// decision. The present-day conflict check is re-run first since an
// employee can mark themselves present between submission and approval.
func (s *Service) Approve(ctx context.Context, requestID, actorID string, comments string) (Request, error) {
	req, err := s.Requests.ByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status == StatusApproved {
		return Request{}, &StateError{Current: req.Status, Reason: "request is already approved"}
	}
	if err := s.authorizeDecision(ctx, req, actorID); err != nil {
		return Request{}, err
	}

	if err := s.Validator.CheckPresentDays(ctx, req.EmployeeID, req.FromDate, req.ToDate); err != nil {
		return Request{}, err
	}

	decidedAt := s.Now()
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.applyApproval(ctx, req); err != nil {
			return err
		}
		return s.Requests.SetDecision(ctx, req.ID, req.Status, StatusApproved, actorID, optional(comments), decidedAt)
	})
	if err != nil {
		return Request{}, s.decisionRace(ctx, requestID, err)
	}

	s.notify(ctx, req.EmployeeID, "leave_approved", "Leave request approved",
		"Your leave from "+req.FromDate.Format("2006-01-02")+" to "+req.ToDate.Format("2006-01-02")+" was approved.")
	return s.Requests.ByID(ctx, requestID)
}

// Reject transitions Open -> Rejected, or reverses an approval. Comments
// are mandatory. Reversal credits back exactly the days approval debited
// and deletes only attendance rows still marked on-leave; rows a human
// changed afterwards are left alone.
func (s *Service) Reject(ctx context.Context, requestID, actorID string, comments string) (Request, error) {
	if strings.TrimSpace(comments) == "" {
		return Request{}, &StateError{Reason: "comments are required to reject a request"}
	}

	req, err := s.Requests.ByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status == StatusRejected {
		return Request{}, &StateError{Current: req.Status, Reason: "request is already rejected"}
	}
	if err := s.authorizeDecision(ctx, req, actorID); err != nil {
		return Request{}, err
	}

	decidedAt := s.Now()
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if req.Status == StatusApproved {
			if err := s.applyReversal(ctx, req); err != nil {
				return err
			}
		}
		return s.Requests.SetDecision(ctx, req.ID, req.Status, StatusRejected, actorID, optional(comments), decidedAt)
	})
	if err != nil {
		return Request{}, s.decisionRace(ctx, requestID, err)
	}

	s.notify(ctx, req.EmployeeID, "leave_rejected", "Leave request rejected",
		"Your leave from "+req.FromDate.Format("2006-01-02")+" to "+req.ToDate.Format("2006-01-02")+" was rejected: "+comments)
	return s.Requests.ByID(ctx, requestID)
}

// UpdatePatch is a partial edit applied through the generic update path.
type UpdatePatch struct {
	FromDate *time.Time
	ToDate   *time.Time
	HalfDay  *bool
	Reason   *string
	Comments *string
	Status   *Status
}

// Update applies a generic field edit. When the edit changes status it must
// trigger exactly the approve/reject side effects the dedicated actions do,
// otherwise the ledger drifts.
func (s *Service) Update(ctx context.Context, requestID, actorID string, patch UpdatePatch) (Request, error) {
	prior, err := s.Requests.ByID(ctx, requestID)
	if err != nil {
		return Request{}, err
	}

	if patch.Status != nil {
		if err := s.authorizeDecision(ctx, prior, actorID); err != nil {
			return Request{}, err
		}
	} else if err := s.authorizeEdit(ctx, prior, actorID); err != nil {
		return Request{}, err
	}

	updated := prior
	datesChanged := false
	if patch.FromDate != nil {
		updated.FromDate = Day(*patch.FromDate)
		datesChanged = true
	}
	if patch.ToDate != nil {
		updated.ToDate = Day(*patch.ToDate)
		datesChanged = true
	}
	if patch.HalfDay != nil && *patch.HalfDay != prior.HalfDay {
		updated.HalfDay = *patch.HalfDay
		datesChanged = true
	}
	if patch.Reason != nil {
		updated.Reason = *patch.Reason
	}
	if patch.Comments != nil {
		updated.Comments = patch.Comments
	}
	if updated.ToDate.Before(updated.FromDate) {
		return Request{}, &ValidationError{Field: "toDate", Reason: "must be on or after fromDate"}
	}
	if datesChanged && prior.Status != StatusOpen {
		return Request{}, &ValidationError{Field: "fromDate", Reason: "dates are immutable once a request is decided"}
	}

	statusChanged := patch.Status != nil && *patch.Status != prior.Status
	if statusChanged {
		switch *patch.Status {
		case StatusApproved, StatusRejected:
		default:
			return Request{}, &StateError{Current: prior.Status, Reason: "cannot reopen a decided request"}
		}
		updated.Status = *patch.Status
	}

	if statusChanged && updated.Status == StatusApproved {
		if err := s.Validator.CheckPresentDays(ctx, updated.EmployeeID, updated.FromDate, updated.ToDate); err != nil {
			return Request{}, err
		}
		at := s.Now()
		updated.ApprovedAt = &at
	}
	if statusChanged && updated.Status == StatusRejected {
		if updated.Comments == nil || strings.TrimSpace(*updated.Comments) == "" {
			return Request{}, &StateError{Current: prior.Status, Reason: "comments are required to reject a request"}
		}
		at := s.Now()
		updated.ApprovedAt = &at
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if statusChanged && updated.Status == StatusApproved {
			// Side effects use the updated (still-open) dates; they become
			// immutable the moment this transaction commits.
			if err := s.applyApproval(ctx, updated); err != nil {
				return err
			}
		}
		if statusChanged && updated.Status == StatusRejected && prior.Status == StatusApproved {
			if err := s.applyReversal(ctx, prior); err != nil {
				return err
			}
		}
		return s.Requests.UpdateFields(ctx, updated, prior.Status)
	})
	if err != nil {
		return Request{}, s.decisionRace(ctx, requestID, err)
	}

	if statusChanged {
		s.notify(ctx, updated.EmployeeID, "leave_"+string(updated.Status), "Leave request "+string(updated.Status),
			"Your leave from "+updated.FromDate.Format("2006-01-02")+" to "+updated.ToDate.Format("2006-01-02")+" is now "+string(updated.Status)+".")
	}
	return s.Requests.ByID(ctx, requestID)
}

func (s *Service) Get(ctx context.Context, requestID string) (Request, error) {
	return s.Requests.ByID(ctx, requestID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	return s.Requests.List(ctx, filter)
}

// applyApproval debits the ledger and synthesizes on-leave attendance. Must
// run inside a transaction.
func (s *Service) applyApproval(ctx context.Context, req Request) error {
	days, err := RequestedDays(req.FromDate, req.ToDate, req.HalfDay)
	if err != nil {
		return err
	}
	if _, err := s.Ledger.Debit(ctx, req.EmployeeID, req.LeaveTypeID, req.FromDate.Year(), days); err != nil {
		return err
	}

	hours := fullDayHours
	if req.HalfDay {
		hours = halfDayHours
	}
	for _, day := range RangeDays(req.FromDate, req.ToDate) {
		if err := s.Attendance.UpsertOnLeave(ctx, req.EmployeeID, day, hours); err != nil {
			return err
		}
	}
	return nil
}

// applyReversal is the exact inverse of applyApproval, computed from the
// request's immutable dates. Must run inside a transaction.
func (s *Service) applyReversal(ctx context.Context, req Request) error {
	days, err := RequestedDays(req.FromDate, req.ToDate, req.HalfDay)
	if err != nil {
		return err
	}
	if _, err := s.Ledger.Credit(ctx, req.EmployeeID, req.LeaveTypeID, req.FromDate.Year(), days); err != nil {
		return err
	}
	for _, day := range RangeDays(req.FromDate, req.ToDate) {
		if err := s.Attendance.DeleteOnLeave(ctx, req.EmployeeID, day); err != nil {
			return err
		}
	}
	return nil
}

// authorizeDecision allows the assigned approver or any admin-access actor.
// Admin bypasses assignment so unassigned requests never get stuck.
func (s *Service) authorizeDecision(ctx context.Context, req Request, actorID string) error {
	actor, err := s.Directory.EmployeeByID(ctx, actorID)
	if err != nil {
		return err
	}
	role, err := s.Directory.RoleByID(ctx, actor.RoleID)
	if err != nil {
		return err
	}
	if role.Access == directory.AccessAdmin {
		return nil
	}
	if req.ApproverID != nil && *req.ApproverID == actorID {
		return nil
	}
	return ErrForbidden
}

// decisionRace translates a lost compare-and-set into a StateError carrying
// the status the winner committed, so the caller can refresh. Any other
// error passes through unchanged.
func (s *Service) decisionRace(ctx context.Context, requestID string, err error) error {
	if !errors.Is(err, ErrStatusChanged) {
		return err
	}
	current, rerr := s.Requests.ByID(ctx, requestID)
	if rerr != nil {
		return rerr
	}
	return &StateError{Current: current.Status, Reason: "request was decided concurrently"}
}

func (s *Service) authorizeEdit(ctx context.Context, req Request, actorID string) error {
	if req.EmployeeID == actorID {
		return nil
	}
	return s.authorizeDecision(ctx, req, actorID)
}

func (s *Service) notify(ctx context.Context, employeeID, kind, title, body string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, employeeID, kind, title, body); err != nil {
		slog.WarnContext(ctx, "leave notification failed", "kind", kind, "employeeId", employeeID, "err", err)
	}
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
