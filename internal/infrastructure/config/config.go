package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES,   default=1000000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	RateLimit RateLimitConfig
	Storage   StorageConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Routing   RoutingConfig
	Search    SearchConfig
	Vault     VaultConfig
}

type RateLimitConfig struct {
	Window time.Duration `env:"RATE_LIMIT_WINDOW,  default=60s"`
	Max    int           `env:"RATE_LIMIT_MAX,     default=10"`
	// Backend is "memory" (per process) or "redis" (shared).
	Backend string `env:"RATE_LIMIT_BACKEND, default=memory"`
}

type StorageConfig struct {
	// Driver is "file" or "mongo".
	Driver     string `env:"ORDER_STORE, default=file"`
	OrdersFile string `env:"ORDERS_FILE, default=./orders.json"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=courier_quote"`
}

// RedisConfig is optional: an empty Addr disables the route cache and the
// shared rate limiter.
type RedisConfig struct {
	Addr          string        `env:"REDIS_ADDR"`
	DB            int           `env:"REDIS_DB,        default=0"`
	RouteCacheTTL time.Duration `env:"ROUTE_CACHE_TTL, default=24h"`
}

// KafkaConfig is optional: an empty Broker disables order events.
type KafkaConfig struct {
	Broker string `env:"KAFKA_BROKER"`
	Topic  string `env:"KAFKA_TOPIC, default=orders"`
}

type RoutingConfig struct {
	BaseURL string        `env:"OSRM_BASE_URL, default=https://router.project-osrm.org"`
	Timeout time.Duration `env:"OSRM_TIMEOUT,  default=8s"`
}

type SearchConfig struct {
	BaseURL string        `env:"ADDRESS_API_BASE_URL, default=https://api-adresse.data.gouv.fr"`
	Timeout time.Duration `env:"ADDRESS_API_TIMEOUT,  default=5s"`
}

type VaultConfig struct {
	// Key is a base64-encoded 32-byte key. When empty a random key is
	// generated at startup and remembered contacts do not survive restarts.
	Key string        `env:"CONTACT_VAULT_KEY"`
	TTL time.Duration `env:"CONTACT_VAULT_TTL, default=720h"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	return load(context.Background(), envconfig.OsLookuper())
}

// LoadFrom reads configuration from a fixed set of variables.
func LoadFrom(ctx context.Context, vars map[string]string) (*Config, error) {
	return load(ctx, envconfig.MapLookuper(vars))
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "file", "mongo":
	default:
		return fmt.Errorf("ORDER_STORE must be file or mongo, got %q", c.Storage.Driver)
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("RATE_LIMIT_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis, got %q", c.RateLimit.Backend)
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.Max <= 0 {
		return fmt.Errorf("rate limit window and max must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
