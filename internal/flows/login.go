package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/credvault/identity"
	"github.com/MrEthical07/credvault/lifecycle"
	"github.com/MrEthical07/credvault/password"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureEmptyPassword
	LoginFailureUnknownEmail
	LoginFailurePasswordMismatch
	LoginFailureInactive
	LoginFailureLookup
	LoginFailureIssue
)

// LoginResult carries the issued pair or failure metadata.
type LoginResult struct {
	Failure  LoginFailureKind
	Err      error
	Identity identity.Identity
	Pair     lifecycle.CredentialPair
	// Rehashed is set when the stored digest was upgraded during this login.
	Rehashed bool
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Users          identity.Store
	DigestUpdater  identity.DigestUpdater
	VerifyPassword func(digest, secret string) (bool, error)
	NeedsUpgrade   func(digest string) (bool, error)
	HashPassword   func(string) (string, error)
	// DummyDigest is verified against when the email is unknown, so that path
	// spends the same Argon2 work as a wrong password.
	DummyDigest string
	IssuePair   func(ctx context.Context, subjectID string) (lifecycle.CredentialPair, error)
	Now         func() time.Time
	Warn        func(ctx context.Context, msg string, args ...any)
}

// RunLogin verifies a password and issues a credential pair. Unknown email, wrong
// password and inactive account are reported with distinct kinds for logging; the
// root package collapses them into one caller-visible error.
func RunLogin(ctx context.Context, email, rawPassword string, deps LoginDeps) LoginResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Warn == nil {
		deps.Warn = func(context.Context, string, ...any) {}
	}

	if rawPassword == "" {
		return LoginResult{Failure: LoginFailureEmptyPassword, Err: errors.New("empty password")}
	}

	user, err := deps.Users.FindByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			if deps.DummyDigest != "" {
				_, _ = deps.VerifyPassword(deps.DummyDigest, rawPassword)
			}
			return LoginResult{Failure: LoginFailureUnknownEmail, Err: err}
		}
		return LoginResult{Failure: LoginFailureLookup, Err: err}
	}

	ok, err := deps.VerifyPassword(user.PasswordDigest, rawPassword)
	if errors.Is(err, password.ErrMalformedDigest) {
		deps.Warn(ctx, "credvault: stored password digest is malformed", "subject_id", user.ID)
	}
	if !ok {
		return LoginResult{Failure: LoginFailurePasswordMismatch, Err: err, Identity: user}
	}

	if !user.IsActive {
		return LoginResult{Failure: LoginFailureInactive, Identity: user}
	}

	rehashed := false
	if deps.DigestUpdater != nil && deps.NeedsUpgrade != nil && deps.HashPassword != nil {
		if needs, err := deps.NeedsUpgrade(user.PasswordDigest); err == nil && needs {
			if digest, err := deps.HashPassword(rawPassword); err == nil {
				if err := deps.DigestUpdater.UpdatePasswordDigest(ctx, user.ID, digest); err != nil {
					deps.Warn(ctx, "credvault: password digest upgrade failed", "subject_id", user.ID, "error", err)
				} else {
					user.PasswordDigest = digest
					rehashed = true
				}
			} else {
				deps.Warn(ctx, "credvault: password digest upgrade generation failed", "subject_id", user.ID)
			}
		}
	}

	pair, err := deps.IssuePair(ctx, user.ID)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Identity: user}
	}

	now := deps.Now().UTC()
	if err := deps.Users.TouchLastLogin(ctx, user.ID, now); err != nil {
		deps.Warn(ctx, "credvault: last login update failed", "subject_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	return LoginResult{Failure: LoginFailureNone, Identity: user, Pair: pair, Rehashed: rehashed}
}
