// Package config loads process configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Local storage drivers.
const (
	LocalDriverSQLite = "sqlite"
	LocalDriverRedis  = "redis"
	LocalDriverMemory = "memory"
)

// Default admin credential pair, matching the community page's historic console login.
const (
	DefaultAdminEmail    = "adminaccess@datacheck.in"
	DefaultAdminPassword = "seccheck@1234"
)

type Config struct {
	Env      string `env:"ENV,default=dev"`
	Port     string `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	Remote RemoteConfig `env:",prefix=REMOTE_"`
	Local  LocalConfig  `env:",prefix=LOCAL_"`
	Admin  AdminConfig  `env:",prefix=ADMIN_"`

	LoginRateLimit float64 `env:"LOGIN_RATE_LIMIT,default=1"`
	LoginRateBurst int     `env:"LOGIN_RATE_BURST,default=5"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT,default=30m"`
	SessionMaxClients  int           `env:"SESSION_MAX_CLIENTS,default=100000"`
	BcryptCost         int           `env:"BCRYPT_COST,default=0"`
}

// RemoteConfig locates the remote directory. URL is a PostgreSQL connection
// string without a password; AccessKey is supplied as the password.
type RemoteConfig struct {
	URL            string        `env:"URL"`
	AccessKey      string        `env:"ACCESS_KEY"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT,default=5s"`
	AutoMigrate    bool          `env:"AUTO_MIGRATE,default=true"`
}

// Configured reports whether both remote values are present.
func (c RemoteConfig) Configured() bool {
	return c.URL != "" && c.AccessKey != ""
}

type LocalConfig struct {
	Driver  string `env:"DRIVER,default=sqlite"`
	Path    string `env:"PATH,default=flavorhub.db"`
	SlotKey string `env:"SLOT_KEY,default=flavorhub_users"`

	RedisAddr     string `env:"REDIS_ADDR,default=127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
}

type AdminConfig struct {
	Email    string `env:"EMAIL,default=adminaccess@datacheck.in"`
	Password string `env:"PASSWORD,default=seccheck@1234"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(ctx context.Context, vars map[string]string) (Config, error) {
	return load(ctx, envconfig.MapLookuper(vars))
}

func load(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, l); err != nil {
		return Config{}, fmt.Errorf("parsing env vars: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Local.Driver {
	case LocalDriverSQLite, LocalDriverRedis, LocalDriverMemory:
	default:
		return fmt.Errorf("LOCAL_DRIVER must be one of sqlite, redis, memory (got %q)", c.Local.Driver)
	}
	if c.Local.SlotKey == "" {
		return fmt.Errorf("LOCAL_SLOT_KEY must not be empty")
	}
	if c.Admin.Email == "" || c.Admin.Password == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must not be empty")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_BURST must be positive")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.SessionMaxClients <= 0 {
		return fmt.Errorf("SESSION_MAX_CLIENTS must be positive")
	}
	return nil
}
