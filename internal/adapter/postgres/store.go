package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultRetryMaxElapsed = 5 * time.Second

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool            *pgxpool.Pool
	retryMaxElapsed time.Duration
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, retryMaxElapsed: defaultRetryMaxElapsed}
}

// WithRetryBudget sets how long transient transaction failures are retried.
func (s *Store) WithRetryBudget(d time.Duration) *Store {
	if d > 0 {
		s.retryMaxElapsed = d
	}
	return s
}

// inTx runs fn in a transaction and commits it. Serialization failures and
// deadlocks restart fn in a fresh transaction with exponential backoff.
// Every other error is returned at once.
func (s *Store) inTx(ctx context.Context, op string, fn func(pgx.Tx) error) error {
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := s.runTx(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if isRetryable(err) {
			slog.WarnContext(ctx, "transaction conflict, retrying", "op", op, "attempt", attempt, "error", err)
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(s.retryMaxElapsed),
	)
	return err
}

func (s *Store) runTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
