// Package config loads settings from the environment, after reading a .env
// file from the working directory when one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds all configuration for the server and the operator CLI.
type Config struct {
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	StoreDriver string `env:"STORE_DRIVER,default=sqlite"`
	DBPath      string `env:"DB_PATH,default=./data/wishlist.db"`
	RedisAddr   string `env:"REDIS_ADDR,default=localhost:6379"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=24h"`

	StaticPath             string `env:"STATIC_PATH,default=./static"`
	FriendFetchConcurrency int    `env:"FRIEND_FETCH_CONCURRENCY,default=4"`

	// Used by wishlistctl to reach a running server.
	ServerURL string `env:"WISHLIST_URL,default=http://localhost:8080"`
	Token     string `env:"WISHLIST_TOKEN"`
}

// Load reads .env (if present) and then the environment. Variables already
// set in the environment win over .env.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are skipped.
func LoadFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want %s, %s or %s", c.StoreDriver, DriverSQLite, DriverRedis, DriverMemory)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.FriendFetchConcurrency < 1 {
		return fmt.Errorf("FRIEND_FETCH_CONCURRENCY must be at least 1, got %d", c.FriendFetchConcurrency)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// RequireSecret reports an error when JWT_SECRET is unset. The server and
// token minting need it; client commands do not.
func (c *Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// Addr is the listen address for the server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
