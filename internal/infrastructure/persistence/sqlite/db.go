// Package sqlite runs engagement writes inside one SQLite transaction that
// repositories pick up from the context.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/garyjia/engagement-tracker/internal/application/port"
)

const (
	defaultBusyRetries = 3
	defaultBusyBackoff = 50 * time.Millisecond
)

type txKey struct{}

// Executor covers both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxManager implements port.TransactionManager over a SQLite handle.
// A transaction that fails because another connection holds the write lock
// is rolled back and run again from the start.
type TxManager struct {
	db      *sql.DB
	logger  *zap.Logger
	retries int
	backoff time.Duration
}

// TxOption configures a TxManager
type TxOption func(*TxManager)

// WithBusyRetry sets how often a busy transaction is retried and the base delay
// between attempts. The delay grows linearly with each attempt.
func WithBusyRetry(retries int, backoff time.Duration) TxOption {
	return func(m *TxManager) {
		if retries >= 0 {
			m.retries = retries
		}
		if backoff > 0 {
			m.backoff = backoff
		}
	}
}

// NewTxManager creates a transaction manager for sqlDB
func NewTxManager(sqlDB *sql.DB, logger *zap.Logger, opts ...TxOption) *TxManager {
	m := &TxManager{
		db:      sqlDB,
		logger:  logger,
		retries: defaultBusyRetries,
		backoff: defaultBusyBackoff,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTransaction runs fn inside a transaction carried by the context.
// Nested calls join the outer transaction and are never retried on their own.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	for attempt := 1; ; attempt++ {
		err := m.runOnce(ctx, fn)
		if err == nil || !IsBusy(err) || attempt > m.retries {
			return err
		}

		m.logger.Warn("Database busy, retrying transaction",
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * m.backoff):
		}
	}
}

func (m *TxManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			m.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			m.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsBusy reports whether err is SQLite refusing a lock held by another connection
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// TxFromContext returns the transaction opened by WithTransaction, if any
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// ExecutorFrom returns the context transaction when present, otherwise db
func ExecutorFrom(ctx context.Context, db *sql.DB) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

var _ port.TransactionManager = (*TxManager)(nil)
