package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/opsdesk/backend/internal/logger"
	"github.com/opsdesk/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// RetryPolicy describes how connection acquisition is retried. Only errors
// the Retryable predicate accepts are retried; everything else is returned
// unchanged on the first occurrence.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Retryable   func(error) bool

	sleep func(time.Duration)
}

// DefaultRetryPolicy retries transient connectivity failures five times with
// a fixed ten second backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Backoff:     10 * time.Second,
		Retryable:   IsConnectivityError,
		sleep:       time.Sleep,
	}
}

// Do runs op under the policy. It stops early when ctx is done, when op
// succeeds, or when op fails with a non-retryable error.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.sleep == nil {
		p.sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}

		lastErr = err
		if attempt < p.MaxAttempts {
			logger.Warn("Database connection failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"backoff": p.Backoff.String(),
				"error":   err.Error(),
			})
			p.sleep(p.Backoff)
		}
	}
	return fmt.Errorf("all %d connection attempts failed: %w", p.MaxAttempts, lastErr)
}

// IsConnectivityError reports whether err looks like a transient network
// failure worth retrying, as opposed to bad credentials or a bad DSN.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"connection refused",
		"connection reset",
		"i/o timeout",
		"no such host",
		"dial tcp",
		"broken pipe",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// Connect opens the relational log store, retrying transient failures under
// the given policy.
func Connect(ctx context.Context, dsn string, policy RetryPolicy) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database connection string is empty")
	}

	var gdb *gorm.DB
	err := policy.Do(ctx, func() error {
		var openErr error
		gdb, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Error),
		})
		if openErr != nil {
			return openErr
		}

		sqlDB, dbErr := gdb.DB()
		if dbErr != nil {
			return dbErr
		}
		return sqlDB.PingContext(ctx)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Database connected successfully", nil)
	return gdb, nil
}

// AutoMigrate creates the log_data table when it does not exist yet. The
// table is normally owned by the log producer; this exists for fresh
// environments.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&models.LogRecord{}); err != nil {
		return fmt.Errorf("failed to migrate log_data: %w", err)
	}
	return nil
}
