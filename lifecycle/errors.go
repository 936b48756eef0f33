package lifecycle

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredential is the uniform rejection for unknown, revoked, expired or
	// malformed refresh secrets.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrTransient marks store timeouts and outages. Safe to retry.
	ErrTransient = errors.New("transient failure")
	// ErrInternal marks signing, randomness and unexpected store failures.
	ErrInternal = errors.New("internal failure")
	// ErrInvalidEnvelope is returned by BlockAccessToken for envelopes that fail verification.
	ErrInvalidEnvelope = errors.New("invalid access envelope")
)

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrTransient, err)
	default:
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
