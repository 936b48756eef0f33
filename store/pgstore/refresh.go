package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MrEthical07/credvault/lifecycle"
)

// RefreshStore persists refresh records in refresh_tokens.
type RefreshStore struct {
	db DBTX
}

// NewRefreshStore returns a RefreshStore over db.
func NewRefreshStore(db DBTX) *RefreshStore {
	return &RefreshStore{db: db}
}

// Insert stores rec.
func (r *RefreshStore) Insert(ctx context.Context, rec lifecycle.RefreshRecord) error {
	query := `
		INSERT INTO refresh_tokens (id, secret_hash, subject_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.SecretHash, rec.SubjectID, rec.ExpiresAt, rec.CreatedAt)
	return wrapErr(err)
}

// FindActiveBySecret returns the non-revoked, unexpired record for secretHash.
func (r *RefreshStore) FindActiveBySecret(ctx context.Context, secretHash string, now time.Time) (lifecycle.RefreshRecord, error) {
	query := `
		SELECT id, subject_id, expires_at, created_at
		FROM refresh_tokens
		WHERE secret_hash = $1 AND revoked = FALSE AND expires_at > $2
	`
	rec := lifecycle.RefreshRecord{SecretHash: secretHash}
	err := r.db.QueryRowContext(ctx, query, secretHash, now).Scan(&rec.ID, &rec.SubjectID, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lifecycle.RefreshRecord{}, lifecycle.ErrRecordNotFound
		}
		return lifecycle.RefreshRecord{}, wrapErr(err)
	}
	return rec, nil
}

// ConsumeActive revokes the active record for secretHash and returns it.
func (r *RefreshStore) ConsumeActive(ctx context.Context, secretHash string, now time.Time) (lifecycle.RefreshRecord, error) {
	query := `
		UPDATE refresh_tokens SET revoked = TRUE
		WHERE secret_hash = $1 AND revoked = FALSE AND expires_at > $2
		RETURNING id, subject_id, expires_at, created_at
	`
	rec := lifecycle.RefreshRecord{SecretHash: secretHash, Revoked: true}
	err := r.db.QueryRowContext(ctx, query, secretHash, now).Scan(&rec.ID, &rec.SubjectID, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lifecycle.RefreshRecord{}, lifecycle.ErrRecordNotFound
		}
		return lifecycle.RefreshRecord{}, wrapErr(err)
	}
	return rec, nil
}

// MarkRevoked flips the revoked flag of id when it is still clear.
func (r *RefreshStore) MarkRevoked(ctx context.Context, id string) (bool, error) {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1 AND revoked = FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr(err)
	}
	return n == 1, nil
}

// MarkAllRevokedForSubject revokes every non-revoked record of subjectID.
func (r *RefreshStore) MarkAllRevokedForSubject(ctx context.Context, subjectID string) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE subject_id = $1 AND revoked = FALSE`
	res, err := r.db.ExecContext(ctx, query, subjectID)
	if err != nil {
		return 0, wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

// DeleteExpiredBefore removes records that expired before cutoff.
func (r *RefreshStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}
