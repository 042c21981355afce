package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const maxAttempts = 5

var ErrRetryLimit = errors.New("transaction retry limit exceeded")

// TxRunner is how services open a unit of work. Wallet recomputation runs
// inside it so the balance and the transaction rows commit together.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

type SQLXTxRunner struct {
	db     *sqlx.DB
	logger *slog.Logger
	pause  func(ctx context.Context, attempt int) error
}

func NewTxRunner(db *sqlx.DB, logger *slog.Logger) SQLXTxRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return SQLXTxRunner{db: db, logger: logger, pause: backoff}
}

type PoolOptions struct {
	MaxOpenConns int
	PingTimeout  time.Duration
}

// Connect opens the postgres pool and checks it answers within PingTimeout.
func Connect(databaseURL string, opts PoolOptions) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 30
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(5, maxOpen))
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// WithTx runs fn in a serializable transaction and replays it on
// serialization failures and deadlocks. fn may run more than once, so it
// must not send messages or publish events itself.
func (r SQLXTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = r.attempt(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		r.logger.WarnContext(ctx, "retrying transaction",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		if perr := r.pause(ctx, attempt); perr != nil {
			return perr
		}
	}
	return errors.Join(ErrRetryLimit, err)
}

func (r SQLXTxRunner) attempt(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func pgCode(err error) string {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return ""
	}
	return pqErr.Code.Name()
}

// IsRetryable reports serialization failures and deadlocks.
func IsRetryable(err error) bool {
	switch pgCode(err) {
	case "serialization_failure", "deadlock_detected":
		return true
	}
	return false
}

// IsForeignKeyViolation reports a write that referenced a row which does not
// exist, such as an unknown category id.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == "foreign_key_violation"
}

func backoff(ctx context.Context, attempt int) error {
	delay := time.Duration(attempt*attempt)*20*time.Millisecond +
		time.Duration(rand.Int63n(int64(10*time.Millisecond)))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
