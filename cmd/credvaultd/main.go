// Command credvaultd serves the credential API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/credvault"
	"github.com/MrEthical07/credvault/identity"
	"github.com/MrEthical07/credvault/internal/httpapi"
	"github.com/MrEthical07/credvault/internal/platform/config"
	"github.com/MrEthical07/credvault/internal/platform/logger"
	"github.com/MrEthical07/credvault/internal/platform/postgres"
	"github.com/MrEthical07/credvault/internal/platform/redisconn"
	sharedrate "github.com/MrEthical07/credvault/internal/rate"
	"github.com/MrEthical07/credvault/lifecycle"
	"github.com/MrEthical07/credvault/metrics/export/prometheus"
	"github.com/MrEthical07/credvault/store/memstore"
	"github.com/MrEthical07/credvault/store/pgstore"
	"github.com/MrEthical07/credvault/store/redisstore"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %s\n", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

type backends struct {
	users     identity.Store
	refresh   lifecycle.RefreshTokenStore
	blocklist lifecycle.AccessTokenBlocklist
	limiter   *sharedrate.Limiter
	closers   []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	baseLogger := logger.NewSlogConfig(logger.SlogConfig{
		Level:     logger.Level(cfg.Log.Level),
		Format:    logger.Format(cfg.Log.Format),
		AddSource: cfg.Log.AddSource,
	})
	slog.SetDefault(baseLogger)

	stores, err := openBackends(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	defer stores.close()

	builder := credvault.New().
		WithConfig(cfg.Engine()).
		WithUserStore(stores.users).
		WithRefreshStore(stores.refresh).
		WithBlocklist(stores.blocklist).
		WithLogger(baseLogger)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(credvault.NewSlogSink(baseLogger))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = prometheus.New(engine).Handler()
	}

	limits := httpapi.DefaultRateLimits()
	limits.Shared = stores.limiter

	e := httpapi.NewServer(httpapi.Options{
		Engine:         engine,
		Logger:         baseLogger,
		RateLimits:     limits,
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Server.MetricsPath,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		baseLogger.Info("http server listening", "addr", srv.Addr, "store_backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		runSweeper(gctx, engine, cfg.Store.PurgeInterval, baseLogger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		baseLogger.Info("http server stopped")
		return nil
	})

	return g.Wait()
}

func openBackends(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backends, error) {
	b := &backends{}

	var pg *postgres.Postgres
	if cfg.Database.URL != "" && cfg.Store.Backend != config.BackendMemory {
		conn, err := postgres.NewPostgresConnection(ctx, *cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, conn.Close)
		if err := conn.Migrate(ctx); err != nil {
			b.close()
			return nil, err
		}
		pg = conn
	}

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		b.users = pgstore.NewUserStore(pg.DB)
		b.refresh = pgstore.NewRefreshStore(pg.DB)
		b.blocklist = pgstore.NewBlocklist(pg.DB)

	case config.BackendRedis:
		client, err := redisconn.New(ctx, *cfg)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Close() })

		store := redisstore.New(client, redisstore.Options{
			Prefix:    cfg.Redis.Prefix,
			Retention: cfg.Store.RefreshRetention,
		})
		b.refresh = store
		b.blocklist = store.Blocklist()
		b.limiter = sharedrate.New(client, cfg.Redis.Prefix)
		if pg != nil {
			b.users = pgstore.NewUserStore(pg.DB)
		} else {
			log.Warn("no DATABASE_URL set, identities are kept in memory")
			b.users = memstore.NewUserStore()
		}

	default:
		log.Warn("memory backend selected, all state is lost on restart")
		b.users = memstore.NewUserStore()
		b.refresh = memstore.NewRefreshStore()
		b.blocklist = memstore.NewBlocklist()
	}

	return b, nil
}
