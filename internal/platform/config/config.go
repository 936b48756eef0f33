package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/MrEthical07/credvault"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Config struct {
	Server struct {
		Port         string        `envconfig:"SERVER_PORT" default:"3333"`
		ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
		WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
		IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
		ShutdownWait time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
		MetricsPath  string        `envconfig:"SERVER_METRICS_PATH" default:"/metrics"`
	}
	JWT struct {
		Secret            string        `envconfig:"JWT_SECRET" required:"true"`
		ExpireTime        time.Duration `envconfig:"JWT_EXPIRE_TIME" default:"15m"`
		RefreshExpireDays int           `envconfig:"JWT_REFRESH_EXPIRE_DAYS" default:"7"`
		Issuer            string        `envconfig:"JWT_ISSUER"`
		Audience          string        `envconfig:"JWT_AUDIENCE"`
	}
	Argon2 struct {
		MemoryKB    uint32 `envconfig:"ARGON2_MEMORY_KB" default:"65536"`
		Time        uint32 `envconfig:"ARGON2_TIME" default:"3"`
		Parallelism uint8  `envconfig:"ARGON2_PARALLELISM" default:"1"`
	}
	Store struct {
		Backend          string        `envconfig:"STORE_BACKEND" default:"postgres"`
		Timeout          time.Duration `envconfig:"STORE_TIMEOUT" default:"3s"`
		RefreshRetention time.Duration `envconfig:"REFRESH_RETENTION" default:"720h"`
		PurgeInterval    time.Duration `envconfig:"PURGE_INTERVAL" default:"10m"`
	}
	Database struct {
		URL string `envconfig:"DATABASE_URL"`
	}
	Postgres struct {
		MaxConns          int32         `envconfig:"PGX_MAX_CONNS" default:"20"`
		MinConns          int32         `envconfig:"PGX_MIN_CONNS" default:"2"`
		MaxConnLifetime   time.Duration `envconfig:"PGX_MAX_CONN_LIFETIME" default:"30m"`
		MaxConnIdleTime   time.Duration `envconfig:"PGX_MAX_CONN_IDLE_TIME" default:"5m"`
		HealthCheckPeriod time.Duration `envconfig:"PGX_HEALTH_CHECK_PERIOD" default:"1m"`
		ConnectTimeout    time.Duration `envconfig:"PGX_CONNECT_TIMEOUT" default:"5s"`
	}
	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
		Prefix   string `envconfig:"REDIS_PREFIX" default:"cv"`
	}
	Log struct {
		Level     string `envconfig:"LOG_LEVEL" default:"info"`
		Format    string `envconfig:"LOG_FORMAT" default:"json"`
		AddSource bool   `envconfig:"LOG_ADD_SOURCE" default:"false"`
	}
	Metrics struct {
		Enabled bool `envconfig:"METRICS_ENABLED" default:"true"`
		Latency bool `envconfig:"METRICS_LATENCY" default:"false"`
	}
	Audit struct {
		Enabled    bool `envconfig:"AUDIT_ENABLED" default:"false"`
		BufferSize int  `envconfig:"AUDIT_BUFFER_SIZE" default:"1024"`
	}
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config from environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.JWT.RefreshExpireDays <= 0 {
		return errors.New("JWT_REFRESH_EXPIRE_DAYS must be positive")
	}
	if c.Store.PurgeInterval <= 0 {
		return errors.New("PURGE_INTERVAL must be positive")
	}
	return nil
}

// Engine maps the process settings onto the engine policy. Validation of the
// result is left to credvault.Builder.
func (c *Config) Engine() credvault.Config {
	out := credvault.DefaultConfig()

	out.JWT.PrivateKey = []byte(c.JWT.Secret)
	out.JWT.AccessTTL = c.JWT.ExpireTime
	out.JWT.Issuer = c.JWT.Issuer
	out.JWT.Audience = c.JWT.Audience

	out.Refresh.TTL = time.Duration(c.JWT.RefreshExpireDays) * 24 * time.Hour
	out.Refresh.Retention = c.Store.RefreshRetention

	out.Password.Memory = c.Argon2.MemoryKB
	out.Password.Time = c.Argon2.Time
	out.Password.Parallelism = c.Argon2.Parallelism

	out.Store.Timeout = c.Store.Timeout

	out.Audit.Enabled = c.Audit.Enabled
	out.Audit.BufferSize = c.Audit.BufferSize

	out.Metrics.Enabled = c.Metrics.Enabled
	out.Metrics.EnableLatencyHistograms = c.Metrics.Enabled && c.Metrics.Latency
	return out
}
