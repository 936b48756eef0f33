package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MrEthical07/credvault/identity"
	"github.com/google/uuid"
)

const userColumns = `id, email, first_name, last_name, password_digest, is_active, last_login_at, created_at, updated_at`

// UserStore persists identities in users.
type UserStore struct {
	db  DBTX
	now func() time.Time
}

// NewUserStore returns a UserStore over db.
func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

// Create inserts a new active identity. A duplicate email fails with identity.ErrEmailTaken.
func (s *UserStore) Create(ctx context.Context, in identity.CreateInput) (identity.Identity, error) {
	now := s.now().UTC()
	rec := identity.Identity{
		ID:             uuid.NewString(),
		Email:          identity.NormalizeEmail(in.Email),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		PasswordDigest: in.PasswordDigest,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	query := `
		INSERT INTO users (id, email, first_name, last_name, password_digest, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
	`
	_, err := s.db.ExecContext(ctx, query, rec.ID, rec.Email, rec.FirstName, rec.LastName, rec.PasswordDigest, now)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.Identity{}, identity.ErrEmailTaken
		}
		return identity.Identity{}, wrapErr(err)
	}
	return rec, nil
}

// FindByEmail looks up by normalized email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (identity.Identity, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, identity.NormalizeEmail(email)))
}

// FindByID looks up by id.
func (s *UserStore) FindByID(ctx context.Context, id string) (identity.Identity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return identity.Identity{}, identity.ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// TouchLastLogin stamps last_login_at.
func (s *UserStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login_at = $2, updated_at = $3 WHERE id = $1`
	return s.execOne(ctx, query, id, at.UTC(), s.now().UTC())
}

// UpdatePasswordDigest replaces the stored digest.
func (s *UserStore) UpdatePasswordDigest(ctx context.Context, id, digest string) error {
	query := `UPDATE users SET password_digest = $2, updated_at = $3 WHERE id = $1`
	return s.execOne(ctx, query, id, digest, s.now().UTC())
}

func (s *UserStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(err)
	}
	if n == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (s *UserStore) scanOne(row *sql.Row) (identity.Identity, error) {
	var (
		rec       identity.Identity
		lastLogin sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.Email, &rec.FirstName, &rec.LastName, &rec.PasswordDigest,
		&rec.IsActive, &lastLogin, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.Identity{}, identity.ErrNotFound
		}
		return identity.Identity{}, wrapErr(err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		rec.LastLoginAt = &t
	}
	return rec, nil
}
