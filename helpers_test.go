package credvault

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/credvault/identity"
	"github.com/MrEthical07/credvault/lifecycle"
	"github.com/MrEthical07/credvault/store/memstore"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "Str0ng!Pass"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = testSigningKey
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Store.Timeout = time.Second
	return cfg
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testStores struct {
	users     *memstore.UserStore
	refresh   *memstore.RefreshStore
	blocklist *memstore.Blocklist
}

func newTestStores() testStores {
	return testStores{
		users:     memstore.NewUserStore(),
		refresh:   memstore.NewRefreshStore(),
		blocklist: memstore.NewBlocklist(),
	}
}

func (s testStores) builder(cfg Config, clock *testClock) *Builder {
	b := New().
		WithConfig(cfg).
		WithUserStore(s.users).
		WithRefreshStore(s.refresh).
		WithBlocklist(s.blocklist)
	if clock != nil {
		b.WithClock(clock.Now)
	}
	return b
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, testStores, *testClock) {
	t.Helper()

	stores := newTestStores()
	clock := newTestClock()
	engine, err := stores.builder(cfg, clock).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, stores, clock
}

func registerAlice(t *testing.T, engine *Engine) RegisterResult {
	t.Helper()

	res, err := engine.Register(context.Background(), RegisterInput{
		Email:     testEmail,
		FirstName: "Alice",
		LastName:  "Liddell",
		Password:  testPassword,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return res
}

type failingBlocklist struct {
	lifecycle.AccessTokenBlocklist
}

func (failingBlocklist) Insert(context.Context, string, time.Time) error {
	return lifecycle.ErrStoreUnavailable
}

type unavailableBlocklist struct {
	lifecycle.AccessTokenBlocklist
}

func (unavailableBlocklist) Contains(context.Context, string, time.Time) (bool, error) {
	return false, lifecycle.ErrStoreUnavailable
}

// stallingUsers blocks lookups until the context ends once stall is set.
type stallingUsers struct {
	*memstore.UserStore
	mu    sync.Mutex
	stall bool
}

func (s *stallingUsers) setStall(v bool) {
	s.mu.Lock()
	s.stall = v
	s.mu.Unlock()
}

func (s *stallingUsers) wait(ctx context.Context) error {
	s.mu.Lock()
	stall := s.stall
	s.mu.Unlock()
	if !stall {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stallingUsers) FindByID(ctx context.Context, id string) (identity.Identity, error) {
	if err := s.wait(ctx); err != nil {
		return identity.Identity{}, err
	}
	return s.UserStore.FindByID(ctx, id)
}

func (s *stallingUsers) FindByEmail(ctx context.Context, email string) (identity.Identity, error) {
	if err := s.wait(ctx); err != nil {
		return identity.Identity{}, err
	}
	return s.UserStore.FindByEmail(ctx, email)
}
