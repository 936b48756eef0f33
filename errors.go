package credvault

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/credvault/lifecycle"
)

var (
	// ErrInvalidCredential is the uniform rejection for a bad login (unknown email, wrong
	// password, inactive account) and for unknown, used or expired refresh secrets.
	ErrInvalidCredential = lifecycle.ErrInvalidCredential
	// ErrEmailAlreadyRegistered is returned by Register when the email key exists.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrUnauthorized is the collapsed outcome of every Authenticate failure. The
	// specific kind below is wrapped alongside it for logging.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken marks a structurally invalid or badly signed envelope.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired marks a correctly signed envelope past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked marks an envelope found on the blocklist.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrIdentityNotFound marks an envelope whose subject no longer exists.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityInactive marks an envelope whose subject is deactivated.
	ErrIdentityInactive = errors.New("identity inactive")
	// ErrTransient marks store timeouts and outages. Safe to retry.
	ErrTransient = lifecycle.ErrTransient
	// ErrInternal marks hashing, signing and unexpected store failures.
	ErrInternal = lifecycle.ErrInternal
	// ErrInvalidInput marks an empty or oversized password or an empty email reaching
	// the engine. Request validation normally rejects these first.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

func unauthorized(kind error) error {
	return fmt.Errorf("%w: %w", ErrUnauthorized, kind)
}

// storeFailure classifies an error from the user store. Lifecycle errors are already
// classified and pass through.
func storeFailure(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTransient), errors.Is(err, ErrInternal):
		return err
	case errors.Is(err, lifecycle.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrTransient, err)
	default:
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
