package lifecycle

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRecordNotFound is returned by stores when no active record matches.
	ErrRecordNotFound = errors.New("refresh record not found")
	// ErrStoreUnavailable wraps connectivity failures. The manager maps it to ErrTransient.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// RefreshRecord is one issued refresh token. SecretHash is the lookup key; the raw
// secret is never stored.
type RefreshRecord struct {
	ID         string
	SecretHash string
	SubjectID  string
	ExpiresAt  time.Time
	Revoked    bool
	CreatedAt  time.Time
}

// Active reports whether the record can still be rotated at now.
func (r RefreshRecord) Active(now time.Time) bool {
	return !r.Revoked && r.ExpiresAt.After(now)
}

// RefreshTokenStore is the persistent ledger of refresh records.
//
// MarkRevoked must be a conditional update: it reports true only for the call that
// flipped the flag, which makes FindActiveBySecret followed by MarkRevoked safe under
// concurrent rotation.
type RefreshTokenStore interface {
	Insert(ctx context.Context, rec RefreshRecord) error
	FindActiveBySecret(ctx context.Context, secretHash string, now time.Time) (RefreshRecord, error)
	MarkRevoked(ctx context.Context, id string) (bool, error)
	MarkAllRevokedForSubject(ctx context.Context, subjectID string) (int64, error)
}

// Consumer is implemented by stores that can find and revoke an active record in a
// single atomic step. The manager prefers it over the two-call path.
type Consumer interface {
	ConsumeActive(ctx context.Context, secretHash string, now time.Time) (RefreshRecord, error)
}

// RetentionSweeper is implemented by stores that physically delete records whose
// expiry is older than cutoff.
type RetentionSweeper interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AccessTokenBlocklist is the set of revoked access-token ids. Contains must ignore
// entries whose expiry is before now. PurgeExpired may report 0 for backends that
// expire entries on their own.
type AccessTokenBlocklist interface {
	Insert(ctx context.Context, tokenID string, expiresAt time.Time) error
	Contains(ctx context.Context, tokenID string, now time.Time) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
