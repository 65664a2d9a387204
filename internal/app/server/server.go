package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leavedesk/internal/domain/attendance"
	"leavedesk/internal/domain/audit"
	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/directory"
	"leavedesk/internal/domain/holiday"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/ledger"
	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/domain/reports"
	"leavedesk/internal/platform/config"
	"leavedesk/internal/platform/db"
	"leavedesk/internal/platform/email"
	"leavedesk/internal/platform/metrics"
	"leavedesk/internal/transport/http/api"
	attendancehandler "leavedesk/internal/transport/http/handlers/attendance"
	audithandler "leavedesk/internal/transport/http/handlers/audit"
	authhandler "leavedesk/internal/transport/http/handlers/auth"
	directoryhandler "leavedesk/internal/transport/http/handlers/directory"
	leavehandler "leavedesk/internal/transport/http/handlers/leave"
	notificationshandler "leavedesk/internal/transport/http/handlers/notifications"
	reportshandler "leavedesk/internal/transport/http/handlers/reports"
	"leavedesk/internal/transport/http/middleware"
)

type Server struct {
	cfg       config.Config
	pool      *pgxpool.Pool
	collector *metrics.Collector
	router    chi.Router
}

func New(cfg config.Config, pool *pgxpool.Pool) *Server {
	s := &Server{
		cfg:       cfg,
		pool:      pool,
		collector: metrics.New(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	// Stores resolve their executor per call, so everything a leave
	// transition touches inside WithinTx shares one transaction.
	q := db.NewContextQuerier(s.pool)

	directoryStore := directory.NewStore(q)
	holidayStore := holiday.NewStore(q)
	attendanceStore := attendance.NewStore(q)
	ledgerStore := ledger.NewStore(q)
	leaveStore := leave.NewStore(q)
	notificationStore := notifications.NewStore(q)
	authStore := auth.NewStore(q)

	ledgerService := ledger.NewService(ledgerStore, s.cfg.QuotaMissingPolicy)
	notificationService := notifications.New(notificationStore, email.NewSender(s.cfg))
	auditService := audit.New(q)
	reportService := reports.New(q)

	validator := &leave.Validator{
		Attendance:         attendanceStore,
		Holidays:           holidayStore,
		Quotas:             ledgerService,
		MissingQuotaPolicy: s.cfg.QuotaMissingPolicy,
	}
	leaveService := leave.NewService(
		leaveStore,
		directoryStore,
		ledgerService,
		attendanceStore,
		validator,
		db.NewTxManager(s.pool),
		notificationService,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger(s.collector))
	r.Use(middleware.Auth(s.cfg.JWTSecret))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.cfg.MetricsEnabled {
		r.Get("/metrics", s.handleMetrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, directoryStore, s.cfg).RegisterRoutes(r)
		directoryhandler.NewHandler(directoryStore, authStore).RegisterRoutes(r)
		leavehandler.NewHandler(leaveService, leaveStore, holidayStore, ledgerService, authStore, auditService).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceStore, authStore).RegisterRoutes(r)
		reportshandler.NewHandler(reportService, authStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationService).RegisterRoutes(r)
		audithandler.NewHandler(auditService, authStore).RegisterRoutes(r)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(r.Context()))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, s.collector.Snapshot(), middleware.GetRequestID(r.Context()))
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests within
// the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: http.MaxBytesHandler(s.router, s.cfg.MaxBodyBytes),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.cfg.Addr, "env", s.cfg.Environment)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
