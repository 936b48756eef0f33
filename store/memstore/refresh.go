package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/credvault/lifecycle"
)

// RefreshStore keeps refresh records in maps guarded by one mutex, which makes
// ConsumeActive and MarkRevoked trivially atomic.
type RefreshStore struct {
	mu        sync.Mutex
	byID      map[string]*lifecycle.RefreshRecord
	byHash    map[string]*lifecycle.RefreshRecord
	bySubject map[string]map[string]struct{}
}

// NewRefreshStore returns an empty store.
func NewRefreshStore() *RefreshStore {
	return &RefreshStore{
		byID:      make(map[string]*lifecycle.RefreshRecord),
		byHash:    make(map[string]*lifecycle.RefreshRecord),
		bySubject: make(map[string]map[string]struct{}),
	}
}

// Insert adds rec. A duplicate id or secret hash is rejected.
func (s *RefreshStore) Insert(ctx context.Context, rec lifecycle.RefreshRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[rec.ID]; ok {
		return errors.New("memstore: duplicate refresh id")
	}
	if _, ok := s.byHash[rec.SecretHash]; ok {
		return errors.New("memstore: duplicate refresh secret")
	}

	stored := rec
	s.byID[rec.ID] = &stored
	s.byHash[rec.SecretHash] = &stored
	ids, ok := s.bySubject[rec.SubjectID]
	if !ok {
		ids = make(map[string]struct{})
		s.bySubject[rec.SubjectID] = ids
	}
	ids[rec.ID] = struct{}{}
	return nil
}

// FindActiveBySecret returns the active record for secretHash.
func (s *RefreshStore) FindActiveBySecret(ctx context.Context, secretHash string, now time.Time) (lifecycle.RefreshRecord, error) {
	if err := ctx.Err(); err != nil {
		return lifecycle.RefreshRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byHash[secretHash]
	if !ok || !rec.Active(now) {
		return lifecycle.RefreshRecord{}, lifecycle.ErrRecordNotFound
	}
	return *rec, nil
}

// MarkRevoked flips the revoked flag of id and reports whether this call flipped it.
func (s *RefreshStore) MarkRevoked(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	return true, nil
}

// ConsumeActive finds and revokes the active record for secretHash in one step.
func (s *RefreshStore) ConsumeActive(ctx context.Context, secretHash string, now time.Time) (lifecycle.RefreshRecord, error) {
	if err := ctx.Err(); err != nil {
		return lifecycle.RefreshRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byHash[secretHash]
	if !ok || !rec.Active(now) {
		return lifecycle.RefreshRecord{}, lifecycle.ErrRecordNotFound
	}
	rec.Revoked = true
	return *rec, nil
}

// MarkAllRevokedForSubject revokes every non-revoked record of subjectID.
func (s *RefreshStore) MarkAllRevokedForSubject(ctx context.Context, subjectID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id := range s.bySubject[subjectID] {
		rec := s.byID[id]
		if rec != nil && !rec.Revoked {
			rec.Revoked = true
			n++
		}
	}
	return n, nil
}

// DeleteExpiredBefore drops records that expired before cutoff.
func (s *RefreshStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.byID {
		if !rec.ExpiresAt.Before(cutoff) {
			continue
		}
		delete(s.byID, id)
		delete(s.byHash, rec.SecretHash)
		if ids := s.bySubject[rec.SubjectID]; ids != nil {
			delete(ids, id)
			if len(ids) == 0 {
				delete(s.bySubject, rec.SubjectID)
			}
		}
		n++
	}
	return n, nil
}

// Get returns a copy of the record with id. Used by tests and tooling.
func (s *RefreshStore) Get(id string) (lifecycle.RefreshRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return lifecycle.RefreshRecord{}, false
	}
	return *rec, true
}

// Len returns the number of stored records.
func (s *RefreshStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
