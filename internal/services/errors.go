// Package services provides business logic layer for the FGBMFI RMM
// application. This file defines the error kinds shared across services.
//
// Error policy: expected business outcomes (not found, district mismatch,
// already verified) travel in typed result structs, never as errors. The
// errors below cover what remains — bad input rejected before any persistence
// call, expired sessions, and infrastructure failures, which wrap the
// underlying cause so callers can distinguish a timeout from a rejection.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/database"
)

// ErrValidation marks input rejected locally, before any persistence call.
// Wrapped with detail via fmt.Errorf("...: %w", ErrValidation).
var ErrValidation = errors.New("validation failed")

// ErrSessionExpired marks an authenticated session that is no longer valid.
// The HTTP layer handles it by redirecting to login for re-authentication,
// never by any kind of global reset.
var ErrSessionExpired = errors.New("session expired")

// IsTimeout reports whether err is (or wraps) a deadline expiry, letting
// callers present "try again" instead of a generic failure.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// boundedCtx derives a request-scoped context capped at the persistence
// timeout. Every service method calls this once at entry so a hung database
// surfaces as a timeout error rather than a stuck registrar desk.
func boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, database.QueryTimeout)
}

// infraErr wraps a persistence failure with its operation name.
// Business rejections never pass through here.
func infraErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
