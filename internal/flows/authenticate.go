package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/credvault/identity"
	"github.com/MrEthical07/credvault/jwt"
)

// AuthenticateFailureKind classifies gate failures. All of them surface to callers as
// one unauthorized outcome.
type AuthenticateFailureKind int

const (
	AuthenticateFailureNone AuthenticateFailureKind = iota
	AuthenticateFailureInvalidToken
	AuthenticateFailureTokenExpired
	AuthenticateFailureTokenRevoked
	AuthenticateFailureIdentityNotFound
	AuthenticateFailureIdentityInactive
	AuthenticateFailureBlocklist
	AuthenticateFailureLookup
)

// AuthenticateResult carries the resolved identity or failure metadata.
type AuthenticateResult struct {
	Failure  AuthenticateFailureKind
	Err      error
	Claims   *jwt.AccessClaims
	Identity identity.Identity
}

// AuthenticateDeps captures gate dependencies.
type AuthenticateDeps struct {
	ParseAccess func(string) (*jwt.AccessClaims, error)
	IsBlocked   func(ctx context.Context, tokenID string) (bool, error)
	Users       identity.Store
}

// RunAuthenticate verifies a bearer envelope, checks the blocklist and resolves the
// subject. A "Bearer " prefix is accepted and stripped.
func RunAuthenticate(ctx context.Context, bearer string, deps AuthenticateDeps) AuthenticateResult {
	token := strings.TrimSpace(bearer)
	if stripped, ok := BearerToken(token); ok {
		token = stripped
	}
	if token == "" {
		return AuthenticateResult{Failure: AuthenticateFailureInvalidToken, Err: jwt.ErrInvalid}
	}

	claims, err := deps.ParseAccess(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return AuthenticateResult{Failure: AuthenticateFailureTokenExpired, Err: err}
		}
		return AuthenticateResult{Failure: AuthenticateFailureInvalidToken, Err: err}
	}

	blocked, err := deps.IsBlocked(ctx, claims.TokenID())
	if err != nil {
		return AuthenticateResult{Failure: AuthenticateFailureBlocklist, Err: err, Claims: claims}
	}
	if blocked {
		return AuthenticateResult{Failure: AuthenticateFailureTokenRevoked, Claims: claims}
	}

	user, err := deps.Users.FindByID(ctx, claims.SubjectID())
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return AuthenticateResult{Failure: AuthenticateFailureIdentityNotFound, Err: err, Claims: claims}
		}
		return AuthenticateResult{Failure: AuthenticateFailureLookup, Err: err, Claims: claims}
	}
	if !user.IsActive {
		return AuthenticateResult{Failure: AuthenticateFailureIdentityInactive, Claims: claims, Identity: user}
	}

	return AuthenticateResult{Failure: AuthenticateFailureNone, Claims: claims, Identity: user}
}
