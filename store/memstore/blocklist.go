package memstore

import (
	"context"
	"sync"
	"time"
)

// Blocklist maps token ids to their expiry.
type Blocklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewBlocklist returns an empty blocklist.
func NewBlocklist() *Blocklist {
	return &Blocklist{entries: make(map[string]time.Time)}
}

// Insert records tokenID until expiresAt. Re-inserting overwrites the expiry.
func (b *Blocklist) Insert(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	b.entries[tokenID] = expiresAt
	b.mu.Unlock()
	return nil
}

// Contains reports a live entry for tokenID.
func (b *Blocklist) Contains(ctx context.Context, tokenID string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	b.mu.RLock()
	expiresAt, ok := b.entries[tokenID]
	b.mu.RUnlock()
	return ok && !expiresAt.Before(now), nil
}

// PurgeExpired deletes entries whose expiry is before now.
func (b *Blocklist) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int64
	for id, expiresAt := range b.entries {
		if expiresAt.Before(now) {
			delete(b.entries, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, live or dead.
func (b *Blocklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
