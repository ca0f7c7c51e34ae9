package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Mirror drivers.
const (
	MirrorMemory   = "memory"
	MirrorSQLite   = "sqlite"
	MirrorRedis    = "redis"
	MirrorPostgres = "postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (BAZAAR_ prefix) or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL; empty serves the embedded catalog from memory"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)"`
	Mirror       MirrorConfig
	Cart         CartConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// MirrorConfig selects where cart snapshots and recently viewed lists are
// persisted.
type MirrorConfig struct {
	Driver string `default:"memory" usage:"Snapshot backend: memory, sqlite, redis or postgres"`
	SQLite SQLiteConfig
	Redis  RedisConfig
}

// SQLiteConfig configures the SQLite mirror.
type SQLiteConfig struct {
	Path string `default:"bazaar.db" usage:"SQLite database file"`
}

// RedisConfig configures the Redis mirror.
type RedisConfig struct {
	Addr     string        `default:"localhost:6379" usage:"Redis address"`
	Password string        `usage:"Redis password"`
	DB       int           `default:"0" usage:"Redis database number"`
	Prefix   string        `default:"bazaar:" usage:"Key prefix"`
	TTL      time.Duration `default:"720h" usage:"Snapshot expiry, refreshed on every write; 0 disables"`
}

// CartConfig controls cart sessions.
type CartConfig struct {
	SessionCookie string        `default:"cart_session" usage:"Cookie carrying the cart session id"`
	SecureCookie  bool          `default:"false" usage:"Send the session cookie over HTTPS only"`
	IdleTimeout   time.Duration `default:"30m" usage:"Evict carts from memory after this long without use"`
	SweepInterval time.Duration `default:"1m" usage:"How often idle carts are evicted"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
	// TrustProxy keys clients by X-Forwarded-For / X-Real-IP. Enable only
	// behind a proxy that overwrites them.
	TrustProxy bool `default:"false" usage:"Take the client address from proxy headers"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BAZAAR",
		SkipFlags: true,
		Files:     []string{"config.yaml", "/etc/bazaar/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

// Validate checks option combinations that cannot work.
func (c *Config) Validate() error {
	switch c.Mirror.Driver {
	case MirrorMemory, MirrorSQLite, MirrorRedis:
	case MirrorPostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres mirror requires a database URL: set BAZAAR_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown mirror driver %q", c.Mirror.Driver)
	}
	if c.Cart.IdleTimeout <= 0 || c.Cart.SweepInterval <= 0 {
		return errors.New("cart idle timeout and sweep interval must be positive")
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit max and window must be positive")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's BAZAAR_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
