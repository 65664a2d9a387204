package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"leavedesk/internal/platform/querier"
)

// Runner executes fn with transactional semantics. Every write a leave
// transition performs must go through one Runner call so ledger and
// attendance rows never drift apart on partial failure.
type Runner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txContextKey struct{}

type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxManager starts pgx transactions and carries them in the context so that
// stores resolve the right executor via FromContext.
type TxManager struct {
	pool txStarter
}

func NewTxManager(pool txStarter) *TxManager {
	return &TxManager{pool: pool}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("db: transaction function is required")
	}

	// Nested calls join the outer transaction.
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("db: begin tx: %w", err)
	}

	if err := fn(contextWithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("db: rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("db: commit: %w", err)
	}
	return nil
}

func contextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx, ok
}

// FromContext returns the transaction carried in ctx, or fallback when no
// transaction is open.
func FromContext(ctx context.Context, fallback querier.Querier) querier.Querier {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// ContextQuerier routes each call through FromContext, so stores built over
// it join whatever transaction the context carries and fall back to the pool
// otherwise.
type ContextQuerier struct {
	Fallback querier.Querier
}

func NewContextQuerier(fallback querier.Querier) ContextQuerier {
	return ContextQuerier{Fallback: fallback}
}

func (q ContextQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return FromContext(ctx, q.Fallback).Query(ctx, sql, args...)
}

func (q ContextQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return FromContext(ctx, q.Fallback).QueryRow(ctx, sql, args...)
}

func (q ContextQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return FromContext(ctx, q.Fallback).Exec(ctx, sql, args...)
}
