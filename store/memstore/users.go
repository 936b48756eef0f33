package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/credvault/identity"
	"github.com/google/uuid"
)

// UserStore is an identity.Store keyed by id with a normalized email index.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]identity.Identity
	byEmail map[string]string
	now     func() time.Time
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]identity.Identity),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// Create inserts a new active identity.
func (s *UserStore) Create(ctx context.Context, in identity.CreateInput) (identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return identity.Identity{}, err
	}
	email := identity.NormalizeEmail(in.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return identity.Identity{}, identity.ErrEmailTaken
	}

	now := s.now().UTC()
	rec := identity.Identity{
		ID:             uuid.NewString(),
		Email:          email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		PasswordDigest: in.PasswordDigest,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.byID[rec.ID] = rec
	s.byEmail[email] = rec.ID
	return rec, nil
}

// FindByEmail looks up by normalized email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return identity.Identity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[identity.NormalizeEmail(email)]
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	return s.byID[id], nil
}

// FindByID looks up by id.
func (s *UserStore) FindByID(ctx context.Context, id string) (identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return identity.Identity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	return rec, nil
}

// TouchLastLogin stamps the last successful login time.
func (s *UserStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, id, func(rec *identity.Identity) {
		t := at.UTC()
		rec.LastLoginAt = &t
	})
}

// UpdatePasswordDigest replaces the stored digest.
func (s *UserStore) UpdatePasswordDigest(ctx context.Context, id, digest string) error {
	return s.update(ctx, id, func(rec *identity.Identity) {
		rec.PasswordDigest = digest
	})
}

// SetActive toggles the active flag. Hosts use it to deactivate accounts.
func (s *UserStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.update(ctx, id, func(rec *identity.Identity) {
		rec.IsActive = active
	})
}

func (s *UserStore) update(ctx context.Context, id string, fn func(*identity.Identity)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return identity.ErrNotFound
	}
	fn(&rec)
	rec.UpdatedAt = s.now().UTC()
	s.byID[id] = rec
	return nil
}
