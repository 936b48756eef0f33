package pgstore

import (
	"context"
	"time"
)

// Blocklist persists revoked access-token ids in blocked_tokens.
type Blocklist struct {
	db DBTX
}

// NewBlocklist returns a Blocklist over db.
func NewBlocklist(db DBTX) *Blocklist {
	return &Blocklist{db: db}
}

// Insert upserts tokenID, keeping the later of the stored and given expiry.
func (b *Blocklist) Insert(ctx context.Context, tokenID string, expiresAt time.Time) error {
	query := `
		INSERT INTO blocked_tokens (token_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token_id) DO UPDATE
		SET expires_at = GREATEST(blocked_tokens.expires_at, EXCLUDED.expires_at)
	`
	_, err := b.db.ExecContext(ctx, query, tokenID, expiresAt)
	return wrapErr(err)
}

// Contains reports a live entry for tokenID.
func (b *Blocklist) Contains(ctx context.Context, tokenID string, now time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM blocked_tokens WHERE token_id = $1 AND expires_at >= $2)`
	var found bool
	if err := b.db.QueryRowContext(ctx, query, tokenID, now).Scan(&found); err != nil {
		return false, wrapErr(err)
	}
	return found, nil
}

// PurgeExpired deletes entries that expired before now.
func (b *Blocklist) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM blocked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, wrapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}
