// Package dbretry wraps storage calls with exponential backoff.
//
// Reads retry on any transient failure. Transactions retry only when the database
// guarantees the failed attempt was rolled back, so a write is never applied twice.
package dbretry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	maxElapsedTime  = 5 * time.Second
	initialInterval = 50 * time.Millisecond
	maxInterval     = time.Second
	maxRetries      = uint64(4)
)

// IsRetryableError reports transient failures that are safe to retry for read-only work.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsRollbackSafe(err) {
		return true
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		switch pgerr.Code {
		case "08000", // connection_exception
			"08003", // connection_does_not_exist
			"08006", // connection_failure
			"08001", // sqlclient_unable_to_establish_sqlconnection
			"08004", // sqlserver_rejected_establishment_of_sqlconnection
			"53000", // insufficient_resources
			"53300", // too_many_connections
			"57P01", // admin_shutdown
			"57P03", // cannot_connect_now
			"55P03": // lock_not_available
			return true
		}
		return false
	}

	// 请求自身的超时与取消不重试
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "connection reset by peer") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "i/o timeout")
}

// IsRollbackSafe reports failures after which the transaction is known to be rolled back.
func IsRollbackSafe(err error) bool {
	if err == nil {
		return false
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return pgerr.Code == "40001" || // serialization_failure
			pgerr.Code == "40P01" // deadlock_detected
	}
	var sqerr sqlite3.Error
	if errors.As(err, &sqerr) {
		return sqerr.Code == sqlite3.ErrBusy || sqerr.Code == sqlite3.ErrLocked
	}
	return false
}

func newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(maxElapsedTime),
		backoff.WithInitialInterval(initialInterval),
		backoff.WithMaxInterval(maxInterval),
	), maxRetries)
	return backoff.WithContext(b, ctx)
}

func retry(ctx context.Context, retryable func(error) bool, operation func(context.Context) error) error {
	var lastErr error
	err := backoff.Retry(func() error {
		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, newBackOff(ctx))
	if err == nil {
		return nil
	}
	if lastErr != nil {
		// 返回真实的数据库错误，便于上层归类
		return lastErr
	}
	return fmt.Errorf("database operation failed: %w", err)
}

// Operation wraps a read with retry logic.
func Operation[T any](ctx context.Context, operation func(context.Context) (T, error)) (T, error) {
	var result T
	err := retry(ctx, IsRetryableError, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})
	return result, err
}

// NoResult wraps a read that doesn't return a result.
func NoResult(ctx context.Context, operation func(context.Context) error) error {
	return retry(ctx, IsRetryableError, operation)
}

// Transaction runs fn in a database transaction and retries it on serialization
// failures and deadlocks only.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return retry(ctx, IsRollbackSafe, func(ctx context.Context) error {
		return db.WithContext(ctx).Transaction(fn)
	})
}
