package credvault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/credvault/identity"
	internalaudit "github.com/MrEthical07/credvault/internal/audit"
	"github.com/MrEthical07/credvault/internal/flows"
	"github.com/MrEthical07/credvault/jwt"
	"github.com/MrEthical07/credvault/lifecycle"
	"github.com/MrEthical07/credvault/password"
	"github.com/google/uuid"
)

// Builder assembles an [Engine]. Configure it during initialization; Build may be
// called once.
type Builder struct {
	config Config

	users     identity.Store
	refresh   lifecycle.RefreshTokenStore
	blocklist lifecycle.AccessTokenBlocklist

	auditSink AuditSink
	logger    *slog.Logger
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the identity store. Required.
func (b *Builder) WithUserStore(users identity.Store) *Builder {
	b.users = users
	return b
}

// WithRefreshStore sets the refresh record ledger. Required.
func (b *Builder) WithRefreshStore(store lifecycle.RefreshTokenStore) *Builder {
	b.refresh = store
	return b
}

// WithBlocklist sets the access token blocklist. Required.
func (b *Builder) WithBlocklist(blocklist lifecycle.AccessTokenBlocklist) *Builder {
	b.blocklist = blocklist
	return b
}

// WithAuditSink sets the audit sink. It only receives events when Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the fallback logger used when a request context carries none.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides the time source for envelopes, records and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the authenticate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.refresh == nil {
		return nil, errors.New("refresh store required")
	}
	if b.blocklist == nil {
		return nil, errors.New("blocklist required")
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}
	log := b.logger
	if log == nil {
		log = slog.Default()
	}

	// -------- ENVELOPE --------
	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	// -------- PASSWORD --------
	ph, err := password.NewHasher(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}
	dummyDigest, err := ph.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("dummy digest: %w", err)
	}

	users := boundUsers(b.users, cfg.Store.Timeout)

	engine := &Engine{
		config:       cfg,
		users:        users,
		jwtManager:   jm,
		passwordHash: ph,
		logger:       log,
		clock:        now,
	}

	// -------- LIFECYCLE --------
	lm, err := lifecycle.New(lifecycle.Config{
		RefreshTTL:       cfg.Refresh.TTL,
		StoreTimeout:     cfg.Store.Timeout,
		RefreshRetention: cfg.Refresh.Retention,
		Leeway:           cfg.JWT.Leeway,
		AllowSubject:     engine.allowSubject,
		Now:              now,
	}, jm, b.refresh, b.blocklist)
	if err != nil {
		return nil, err
	}
	engine.lifecycle = lm

	var digestUpdater identity.DigestUpdater
	if cfg.Password.UpgradeOnLogin {
		updater, _ := b.users.(identity.DigestUpdater)
		digestUpdater = boundDigestUpdater(updater, cfg.Store.Timeout)
	}

	engine.flows = flows.New(flows.Deps{
		Register: flows.RegisterDeps{
			Users:        users,
			HashPassword: ph.Hash,
		},
		Login: flows.LoginDeps{
			Users:          users,
			DigestUpdater:  digestUpdater,
			VerifyPassword: ph.Verify,
			NeedsUpgrade:   ph.NeedsUpgrade,
			HashPassword:   ph.Hash,
			DummyDigest:    dummyDigest,
			IssuePair:      lm.IssuePair,
			Now:            now,
			Warn: func(ctx context.Context, msg string, args ...any) {
				engine.log(ctx).Warn(msg, args...)
			},
		},
		Refresh: flows.RefreshDeps{
			Rotate: lm.Rotate,
		},
		Logout: flows.LogoutDeps{
			Logout: lm.Logout,
		},
		Authenticate: flows.AuthenticateDeps{
			ParseAccess: jm.Parse,
			IsBlocked:   lm.IsBlocked,
			Users:       users,
		},
	})

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
