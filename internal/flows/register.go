package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/credvault/identity"
)

// RegisterFailureKind classifies register flow failures for root-level mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureEmailTaken
	RegisterFailureLookup
	RegisterFailureHash
	RegisterFailureCreate
)

// RegisterResult carries the created identity or failure metadata.
type RegisterResult struct {
	Failure  RegisterFailureKind
	Err      error
	Identity identity.Identity
}

// RegisterDeps captures register flow dependencies.
type RegisterDeps struct {
	Users        identity.Store
	HashPassword func(string) (string, error)
}

// RunRegister creates an identity with a hashed password. The email is checked before
// hashing so a duplicate costs no Argon2 work; Create still enforces uniqueness for the
// race between two registrations of one address.
func RunRegister(ctx context.Context, in identity.CreateInput, rawPassword string, deps RegisterDeps) RegisterResult {
	in.Email = identity.NormalizeEmail(in.Email)

	if _, err := deps.Users.FindByEmail(ctx, in.Email); err == nil {
		return RegisterResult{Failure: RegisterFailureEmailTaken, Err: identity.ErrEmailTaken}
	} else if !errors.Is(err, identity.ErrNotFound) {
		return RegisterResult{Failure: RegisterFailureLookup, Err: err}
	}

	digest, err := deps.HashPassword(rawPassword)
	if err != nil {
		return RegisterResult{Failure: RegisterFailureHash, Err: err}
	}
	in.PasswordDigest = digest

	created, err := deps.Users.Create(ctx, in)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return RegisterResult{Failure: RegisterFailureEmailTaken, Err: err}
		}
		return RegisterResult{Failure: RegisterFailureCreate, Err: err}
	}

	return RegisterResult{Failure: RegisterFailureNone, Identity: created}
}
