package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Store lookups that match no record.
	ErrNotFound = errors.New("identity not found")
	// ErrEmailTaken is returned by Store.Create when the email key already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// Identity is a stored user record. PasswordDigest never leaves the engine; callers
// receive [Public] instead.
type Identity struct {
	ID             string
	Email          string
	FirstName      string
	LastName       string
	PasswordDigest string
	IsActive       bool
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Public is the identity view without secret fields.
type Public struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Public strips the password digest.
func (i Identity) Public() Public {
	return Public{
		ID:          i.ID,
		Email:       i.Email,
		FirstName:   i.FirstName,
		LastName:    i.LastName,
		IsActive:    i.IsActive,
		LastLoginAt: i.LastLoginAt,
	}
}

// CreateInput carries the fields needed to create an identity. PasswordDigest is
// already hashed.
type CreateInput struct {
	Email          string
	FirstName      string
	LastName       string
	PasswordDigest string
}

// Store is the user-record collaborator. Implementations must enforce email
// uniqueness and return ErrNotFound / ErrEmailTaken for the matching conditions.
type Store interface {
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindByID(ctx context.Context, id string) (Identity, error)
	Create(ctx context.Context, in CreateInput) (Identity, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// DigestUpdater is implemented by stores that can replace a stored password digest.
// The engine uses it to upgrade digests produced with weaker parameters.
type DigestUpdater interface {
	UpdatePasswordDigest(ctx context.Context, id, digest string) error
}

// NormalizeEmail trims and lower-cases an email so lookups and the uniqueness key agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
