package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	defaultAttempts = 4
	baseBackoff     = 20 * time.Millisecond
)

// IsUniqueViolation reports whether err comes from a unique constraint,
// either translated by GORM or raw from the postgres driver.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsTransient reports serialization failures and deadlocks.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// WithRetry runs fn until it succeeds, fails with an error retryable does not
// accept, or the attempts run out. Backoff doubles after every failed attempt.
func WithRetry(ctx context.Context, retryable func(error) bool, fn func() error) error {
	backoff := baseBackoff
	var err error
	for attempt := 1; attempt <= defaultAttempts; attempt++ {
		err = fn()
		if err == nil || !retryable(err) {
			return err
		}
		if attempt == defaultAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

// RetryOnConflict accepts unique violations and transient faults.
func RetryOnConflict(err error) bool {
	return IsUniqueViolation(err) || IsTransient(err)
}
