package notifications

import (
	"context"
	"log/slog"
)

const (
	TypeLeaveSubmitted = "leave_submitted"
	TypeLeaveApproved  = "leave_approved"
	TypeLeaveRejected  = "leave_rejected"
)

// Mailer delivers one message to one recipient. Implementations own their
// from address and may drop messages when delivery is disabled.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type StoreAPI interface {
	CreateNotification(ctx context.Context, userID, ntype, title, body string) error
	EmployeeContact(ctx context.Context, employeeID string) (userID, email string, err error)
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	CountNotifications(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// Service records in-app notifications and sends best-effort email. Nothing
// here may fail a caller's state transition: delivery errors are logged and
// swallowed.
type Service struct {
	store  StoreAPI
	mailer Mailer
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, mailer: mailer}
}

// Notify delivers to an employee: one in-app row plus, when enabled, one
// email. Satisfies the leave engine's Notifier contract.
func (s *Service) Notify(ctx context.Context, employeeID, kind, title, body string) error {
	userID, email, err := s.store.EmployeeContact(ctx, employeeID)
	if err != nil {
		return err
	}

	if err := s.store.CreateNotification(ctx, userID, kind, title, body); err != nil {
		return err
	}

	if s.mailer == nil || email == "" {
		return nil
	}
	if err := s.mailer.Send(ctx, email, title, body); err != nil {
		slog.WarnContext(ctx, "notification email send failed", "employeeId", employeeID, "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	return s.store.CountNotifications(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
