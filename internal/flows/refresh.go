package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/credvault/lifecycle"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureInvalidCredential
	RefreshFailureRotate
)

// RefreshResult carries the rotated pair or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Pair    lifecycle.CredentialPair
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Rotate func(ctx context.Context, secret string) (lifecycle.CredentialPair, error)
}

// RunRefresh exchanges a refresh secret for a new pair.
func RunRefresh(ctx context.Context, secret string, deps RefreshDeps) RefreshResult {
	pair, err := deps.Rotate(ctx, secret)
	if err != nil {
		if errors.Is(err, lifecycle.ErrInvalidCredential) {
			return RefreshResult{Failure: RefreshFailureInvalidCredential, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureRotate, Err: err}
	}
	return RefreshResult{Failure: RefreshFailureNone, Pair: pair}
}
