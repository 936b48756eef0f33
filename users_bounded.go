package credvault

import (
	"context"
	"time"

	"github.com/MrEthical07/credvault/identity"
)

// boundedUsers applies Store.Timeout to every identity store call, the same bound
// the lifecycle manager applies to the token stores.
type boundedUsers struct {
	store   identity.Store
	timeout time.Duration
}

func boundUsers(store identity.Store, timeout time.Duration) identity.Store {
	if timeout <= 0 {
		return store
	}
	return boundedUsers{store: store, timeout: timeout}
}

func (u boundedUsers) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, u.timeout)
}

func (u boundedUsers) FindByEmail(ctx context.Context, email string) (identity.Identity, error) {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.FindByEmail(ctx, email)
}

func (u boundedUsers) FindByID(ctx context.Context, id string) (identity.Identity, error) {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.FindByID(ctx, id)
}

func (u boundedUsers) Create(ctx context.Context, in identity.CreateInput) (identity.Identity, error) {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.Create(ctx, in)
}

func (u boundedUsers) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := u.bound(ctx)
	defer cancel()
	return u.store.TouchLastLogin(ctx, id, at)
}

type boundedDigestUpdater struct {
	updater identity.DigestUpdater
	timeout time.Duration
}

func boundDigestUpdater(updater identity.DigestUpdater, timeout time.Duration) identity.DigestUpdater {
	if updater == nil || timeout <= 0 {
		return updater
	}
	return boundedDigestUpdater{updater: updater, timeout: timeout}
}

func (u boundedDigestUpdater) UpdatePasswordDigest(ctx context.Context, id, digest string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	return u.updater.UpdatePasswordDigest(ctx, id, digest)
}
