package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/credvault/jwt"
	"github.com/MrEthical07/credvault/refresh"
	"github.com/google/uuid"
)

// Envelope mints and verifies signed access envelopes. *jwt.Manager satisfies it.
type Envelope interface {
	Mint(subjectID string) (string, *jwt.AccessClaims, error)
	Parse(token string) (*jwt.AccessClaims, error)
	AccessTTL() time.Duration
}

// Config holds lifecycle policy.
type Config struct {
	// RefreshTTL is the lifetime of a refresh record. Defaults to 7 days.
	RefreshTTL time.Duration
	// StoreTimeout bounds every store call. The caller's deadline still wins when sooner.
	StoreTimeout time.Duration
	// RefreshRetention is how long expired refresh records are kept before
	// PurgeExpired deletes them. Zero disables the refresh sweep.
	RefreshRetention time.Duration
	// AllowSubject, when set, runs after a refresh record is consumed and before the
	// replacement pair is minted. A non-nil error aborts the rotation.
	AllowSubject func(ctx context.Context, subjectID string) error
	// Leeway is the clock skew the envelope parser tolerates past exp. Blocklist
	// entries outlive exp by the same amount.
	Leeway time.Duration
	Now    func() time.Time
}

// CredentialPair is one issuance: an access envelope and a refresh secret.
type CredentialPair struct {
	SubjectID        string
	AccessToken      string
	AccessTokenID    string
	AccessExpiresAt  time.Time
	AccessTTL        time.Duration
	RefreshToken     string
	RefreshID        string
	RefreshExpiresAt time.Time
}

// ExpiresIn is the access lifetime in whole seconds.
func (p CredentialPair) ExpiresIn() int64 {
	return int64(p.AccessTTL / time.Second)
}

// LogoutResult reports the outcome of both logout steps. BlocklistErr is a soft
// failure: refresh revocation already ran.
type LogoutResult struct {
	RevokedRefresh int64
	BlockedTokenID string
	BlocklistErr   error
}

// PurgeResult counts rows removed by PurgeExpired.
type PurgeResult struct {
	Blocklist int64
	Refresh   int64
}

// Manager orchestrates issuance, rotation and revocation across the two stores.
type Manager struct {
	cfg       Config
	envelope  Envelope
	refresh   RefreshTokenStore
	blocklist AccessTokenBlocklist
	newSecret func() (string, error)
}

// New returns a Manager. All collaborators are required.
func New(cfg Config, envelope Envelope, refreshStore RefreshTokenStore, blocklist AccessTokenBlocklist) (*Manager, error) {
	if envelope == nil {
		return nil, errors.New("lifecycle: nil envelope")
	}
	if refreshStore == nil {
		return nil, errors.New("lifecycle: nil refresh store")
	}
	if blocklist == nil {
		return nil, errors.New("lifecycle: nil blocklist")
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.RefreshTTL < 0 {
		return nil, errors.New("lifecycle: negative refresh TTL")
	}
	if cfg.StoreTimeout < 0 || cfg.RefreshRetention < 0 || cfg.Leeway < 0 {
		return nil, errors.New("lifecycle: negative timeout, retention or leeway")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Manager{
		cfg:       cfg,
		envelope:  envelope,
		refresh:   refreshStore,
		blocklist: blocklist,
		newSecret: refresh.NewSecret,
	}, nil
}

// AccessTTL returns the envelope lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.envelope.AccessTTL()
}

// IssuePair mints an access envelope and persists a new refresh record for subjectID.
// Existing records are untouched.
func (m *Manager) IssuePair(ctx context.Context, subjectID string) (CredentialPair, error) {
	if subjectID == "" {
		return CredentialPair{}, fmt.Errorf("%w: empty subject", ErrInternal)
	}

	access, claims, err := m.envelope.Mint(subjectID)
	if err != nil {
		return CredentialPair{}, fmt.Errorf("%w: mint access: %v", ErrInternal, err)
	}

	secret, err := m.newSecret()
	if err != nil {
		return CredentialPair{}, fmt.Errorf("%w: refresh secret: %v", ErrInternal, err)
	}

	now := m.cfg.Now()
	rec := RefreshRecord{
		ID:         uuid.NewString(),
		SecretHash: refresh.Hash(secret),
		SubjectID:  subjectID,
		ExpiresAt:  now.Add(m.cfg.RefreshTTL),
		CreatedAt:  now,
	}

	sctx, cancel := m.storeContext(ctx)
	defer cancel()
	if err := m.refresh.Insert(sctx, rec); err != nil {
		return CredentialPair{}, classify(err)
	}

	return CredentialPair{
		SubjectID:        subjectID,
		AccessToken:      access,
		AccessTokenID:    claims.TokenID(),
		AccessExpiresAt:  claims.Expiry(),
		AccessTTL:        m.envelope.AccessTTL(),
		RefreshToken:     secret,
		RefreshID:        rec.ID,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

// Rotate exchanges a refresh secret for a new pair. Unknown, revoked, expired and
// malformed secrets all fail with ErrInvalidCredential. The presented record is
// revoked before the new pair is minted; if the caller cancels afterwards the old
// secret stays revoked.
func (m *Manager) Rotate(ctx context.Context, secret string) (CredentialPair, error) {
	if err := refresh.Validate(secret); err != nil {
		return CredentialPair{}, ErrInvalidCredential
	}

	rec, err := m.consume(ctx, refresh.Hash(secret))
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return CredentialPair{}, ErrInvalidCredential
		}
		return CredentialPair{}, classify(err)
	}

	if m.cfg.AllowSubject != nil {
		if err := m.cfg.AllowSubject(ctx, rec.SubjectID); err != nil {
			return CredentialPair{}, err
		}
	}

	return m.IssuePair(ctx, rec.SubjectID)
}

func (m *Manager) consume(ctx context.Context, secretHash string) (RefreshRecord, error) {
	sctx, cancel := m.storeContext(ctx)
	defer cancel()

	now := m.cfg.Now()
	if c, ok := m.refresh.(Consumer); ok {
		return c.ConsumeActive(sctx, secretHash, now)
	}

	rec, err := m.refresh.FindActiveBySecret(sctx, secretHash, now)
	if err != nil {
		return RefreshRecord{}, err
	}
	flipped, err := m.refresh.MarkRevoked(sctx, rec.ID)
	if err != nil {
		return RefreshRecord{}, err
	}
	if !flipped {
		// Lost the race to a concurrent rotation of the same secret.
		return RefreshRecord{}, ErrRecordNotFound
	}
	rec.Revoked = true
	return rec, nil
}

// RevokeAllForSubject revokes every active refresh record of subjectID and returns how
// many flipped. Repeating it is harmless.
func (m *Manager) RevokeAllForSubject(ctx context.Context, subjectID string) (int64, error) {
	sctx, cancel := m.storeContext(ctx)
	defer cancel()

	n, err := m.refresh.MarkAllRevokedForSubject(sctx, subjectID)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// BlockAccessToken verifies envelope and adds its jti to the blocklist until the
// envelope can no longer pass verification. An envelope the parser already rejects
// as expired needs no entry and returns (empty id, nil).
func (m *Manager) BlockAccessToken(ctx context.Context, envelope string) (string, error) {
	claims, err := m.envelope.Parse(envelope)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return claims.TokenID(), m.BlockClaims(ctx, claims)
}

// BlockClaims inserts a blocklist entry for already verified claims. The entry lives
// until the last instant the parser would still accept the envelope, exp plus Leeway.
func (m *Manager) BlockClaims(ctx context.Context, claims *jwt.AccessClaims) error {
	if claims == nil || claims.TokenID() == "" {
		return fmt.Errorf("%w: missing jti", ErrInvalidEnvelope)
	}
	expiresAt := claims.Expiry().Add(m.cfg.Leeway)
	if !expiresAt.After(m.cfg.Now()) {
		return nil
	}

	sctx, cancel := m.storeContext(ctx)
	defer cancel()
	return classify(m.blocklist.Insert(sctx, claims.TokenID(), expiresAt))
}

// IsBlocked reports whether tokenID has a live blocklist entry.
func (m *Manager) IsBlocked(ctx context.Context, tokenID string) (bool, error) {
	sctx, cancel := m.storeContext(ctx)
	defer cancel()

	blocked, err := m.blocklist.Contains(sctx, tokenID, m.cfg.Now())
	if err != nil {
		return false, classify(err)
	}
	return blocked, nil
}

// Logout revokes every refresh record of subjectID, then blocklists envelope. Both
// steps always run. The returned error reports refresh revocation only; a blocklist
// failure is carried in LogoutResult.BlocklistErr.
func (m *Manager) Logout(ctx context.Context, subjectID, envelope string) (LogoutResult, error) {
	var result LogoutResult

	revoked, revokeErr := m.RevokeAllForSubject(ctx, subjectID)
	result.RevokedRefresh = revoked

	tokenID, blockErr := m.BlockAccessToken(ctx, envelope)
	result.BlockedTokenID = tokenID
	result.BlocklistErr = blockErr

	return result, revokeErr
}

// PurgeExpired removes dead blocklist entries and, when RefreshRetention is set and
// the store supports it, refresh records expired for longer than the retention window.
func (m *Manager) PurgeExpired(ctx context.Context) (PurgeResult, error) {
	var result PurgeResult
	now := m.cfg.Now()

	sctx, cancel := m.storeContext(ctx)
	defer cancel()

	n, err := m.blocklist.PurgeExpired(sctx, now)
	if err != nil {
		return result, classify(err)
	}
	result.Blocklist = n

	sweeper, ok := m.refresh.(RetentionSweeper)
	if !ok || m.cfg.RefreshRetention == 0 {
		return result, nil
	}
	n, err = sweeper.DeleteExpiredBefore(sctx, now.Add(-m.cfg.RefreshRetention))
	if err != nil {
		return result, classify(err)
	}
	result.Refresh = n
	return result, nil
}

func (m *Manager) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.cfg.StoreTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.cfg.StoreTimeout)
}
