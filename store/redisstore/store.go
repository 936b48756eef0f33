package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/credvault/lifecycle"
	"github.com/redis/go-redis/v9"
)

const minKeyTTL = time.Second

// Options configures a Store.
type Options struct {
	// Prefix namespaces every key. Defaults to "cv".
	Prefix string
	// Retention keeps refresh records this long past their expiry before Redis drops them.
	Retention time.Duration
	Now       func() time.Time
}

// Store is a Redis-backed refresh store and blocklist. It implements
// lifecycle.RefreshTokenStore, lifecycle.Consumer and lifecycle.AccessTokenBlocklist.
type Store struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// New returns a Store over client.
func New(client redis.UniversalClient, opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = "cv"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		redis:     client,
		prefix:    opts.Prefix,
		retention: opts.Retention,
		now:       opts.Now,
	}
}

func (s *Store) refreshPrefix() string { return s.prefix + ":rt:" }

func (s *Store) refreshKey(secretHash string) string { return s.refreshPrefix() + secretHash }

func (s *Store) refreshIDKey(id string) string { return s.prefix + ":rt:id:" + id }

func (s *Store) subjectKey(subjectID string) string { return s.prefix + ":rt:sub:" + subjectID }

func (s *Store) blockKey(tokenID string) string { return s.prefix + ":bl:" + tokenID }

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", lifecycle.ErrStoreUnavailable, err)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Insert stores rec and indexes it by id and subject. Keys live until the record's
// expiry plus the configured retention.
func (s *Store) Insert(ctx context.Context, rec lifecycle.RefreshRecord) error {
	ttl := rec.ExpiresAt.Sub(rec.CreatedAt) + s.retention
	if ttl < minKeyTTL {
		ttl = minKeyTTL
	}

	created, err := insertRefreshLua.Run(ctx, s.redis,
		[]string{s.refreshKey(rec.SecretHash), s.refreshIDKey(rec.ID), s.subjectKey(rec.SubjectID)},
		rec.ID,
		rec.SubjectID,
		rec.ExpiresAt.UnixMilli(),
		rec.CreatedAt.UnixMilli(),
		rec.SecretHash,
		ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return unavailable(err)
	}
	if created == 0 {
		return errors.New("redisstore: refresh secret already stored")
	}
	return nil
}

// FindActiveBySecret reads the record for secretHash without modifying it.
func (s *Store) FindActiveBySecret(ctx context.Context, secretHash string, now time.Time) (lifecycle.RefreshRecord, error) {
	fields, err := s.redis.HGetAll(ctx, s.refreshKey(secretHash)).Result()
	if err != nil {
		return lifecycle.RefreshRecord{}, unavailable(err)
	}
	if len(fields) == 0 {
		return lifecycle.RefreshRecord{}, lifecycle.ErrRecordNotFound
	}

	rec, err := decodeRecord(secretHash, fields["id"], fields["sub"], fields["exp"], fields["created"])
	if err != nil {
		return lifecycle.RefreshRecord{}, err
	}
	rec.Revoked = fields["revoked"] == "1"
	if !rec.Active(now) {
		return lifecycle.RefreshRecord{}, lifecycle.ErrRecordNotFound
	}
	return rec, nil
}

// ConsumeActive revokes and returns the active record for secretHash in one script call.
func (s *Store) ConsumeActive(ctx context.Context, secretHash string, now time.Time) (lifecycle.RefreshRecord, error) {
	res, err := consumeRefreshLua.Run(ctx, s.redis, []string{s.refreshKey(secretHash)}, now.UnixMilli()).Slice()
	if err != nil {
		return lifecycle.RefreshRecord{}, unavailable(err)
	}
	if len(res) == 0 {
		return lifecycle.RefreshRecord{}, errors.New("redisstore: empty consume reply")
	}
	status, _ := res[0].(int64)
	if status == 0 {
		return lifecycle.RefreshRecord{}, lifecycle.ErrRecordNotFound
	}
	if len(res) != 5 {
		return lifecycle.RefreshRecord{}, fmt.Errorf("redisstore: consume reply has %d items", len(res))
	}

	str := func(v interface{}) string {
		s, _ := v.(string)
		return s
	}
	rec, err := decodeRecord(secretHash, str(res[1]), str(res[2]), str(res[3]), str(res[4]))
	if err != nil {
		return lifecycle.RefreshRecord{}, err
	}
	rec.Revoked = true
	return rec, nil
}

// MarkRevoked flips the revoked flag of id and reports whether this call flipped it.
func (s *Store) MarkRevoked(ctx context.Context, id string) (bool, error) {
	n, err := markRevokedLua.Run(ctx, s.redis, []string{s.refreshIDKey(id)}, s.refreshPrefix()).Int64()
	if err != nil {
		return false, unavailable(err)
	}
	return n == 1, nil
}

// MarkAllRevokedForSubject revokes every live record of subjectID. Index entries whose
// record already expired out of Redis are pruned on the way.
func (s *Store) MarkAllRevokedForSubject(ctx context.Context, subjectID string) (int64, error) {
	n, err := markAllRevokedLua.Run(ctx, s.redis, []string{s.subjectKey(subjectID)}, s.refreshPrefix()).Int64()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// The key expires with the envelope. An entry already past expiresAt is not written.
func (s *Store) blockInsert(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	if err := s.redis.Set(ctx, s.blockKey(tokenID), expiresAt.UnixMilli(), ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) blockContains(ctx context.Context, tokenID string, now time.Time) (bool, error) {
	exp, err := s.redis.Get(ctx, s.blockKey(tokenID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, unavailable(err)
	}
	return exp >= now.UnixMilli(), nil
}

// Blocklist returns the access-token blocklist view of s.
func (s *Store) Blocklist() *Blocklist {
	return &Blocklist{store: s}
}

// Blocklist adapts Store to lifecycle.AccessTokenBlocklist.
type Blocklist struct {
	store *Store
}

// Insert adds tokenID until expiresAt.
func (b *Blocklist) Insert(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return b.store.blockInsert(ctx, tokenID, expiresAt)
}

// Contains reports a live entry for tokenID.
func (b *Blocklist) Contains(ctx context.Context, tokenID string, now time.Time) (bool, error) {
	return b.store.blockContains(ctx, tokenID, now)
}

// PurgeExpired is a no-op: entries carry a TTL.
func (b *Blocklist) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func decodeRecord(secretHash, id, subject, exp, created string) (lifecycle.RefreshRecord, error) {
	expMS, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return lifecycle.RefreshRecord{}, fmt.Errorf("redisstore: corrupt refresh expiry: %w", err)
	}
	createdMS, err := strconv.ParseInt(created, 10, 64)
	if err != nil {
		return lifecycle.RefreshRecord{}, fmt.Errorf("redisstore: corrupt refresh creation time: %w", err)
	}
	if id == "" || subject == "" {
		return lifecycle.RefreshRecord{}, errors.New("redisstore: corrupt refresh record")
	}
	return lifecycle.RefreshRecord{
		ID:         id,
		SecretHash: secretHash,
		SubjectID:  subject,
		ExpiresAt:  time.UnixMilli(expMS),
		CreatedAt:  time.UnixMilli(createdMS),
	}, nil
}
