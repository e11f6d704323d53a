// Package config loads service and client settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store configures the store server.
type Store struct {
	ServiceName    string        `env:"SERVICE_NAME" envDefault:"chatsync-store"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	// DATABASE_URL empty runs the server on the in-memory store.
	DatabaseURL    string        `env:"DATABASE_URL"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RepairInterval time.Duration `env:"REPAIR_INTERVAL" envDefault:"5m"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"600"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"http://localhost:4318/v1/traces"`
}

// Client configures a sync client.
type Client struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
	StoreURL string `env:"CHATSYNC_STORE_URL" envDefault:"http://localhost:8080"`

	ViewerEmail string `env:"CHATSYNC_VIEWER_EMAIL"`
	ViewerRole  string `env:"CHATSYNC_VIEWER_ROLE" envDefault:"coach"`

	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	MaxBackoff     time.Duration `env:"POLL_MAX_BACKOFF" envDefault:"30s"`
	ReceiptTimeout time.Duration `env:"RECEIPT_TIMEOUT" envDefault:"10s"`
	// TimeZone decides calendar-day boundaries for date separators.
	TimeZone string `env:"TZ_NAME" envDefault:"Local"`

	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"http://localhost:4318/v1/traces"`
}

// Location resolves TimeZone.
func (c Client) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_NAME %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func LoadStore() (Store, error) {
	var cfg Store
	if err := parse(&cfg); err != nil {
		return Store{}, err
	}
	if cfg.RepairInterval <= 0 {
		return Store{}, fmt.Errorf("REPAIR_INTERVAL must be positive, got %s", cfg.RepairInterval)
	}
	if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow <= 0 {
		return Store{}, fmt.Errorf("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT_REQUESTS is set")
	}
	return cfg, nil
}

func LoadClient() (Client, error) {
	var cfg Client
	if err := parse(&cfg); err != nil {
		return Client{}, err
	}
	if cfg.PollInterval <= 0 {
		return Client{}, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if _, err := cfg.Location(); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

// parse loads an optional .env file and then the process environment. Variables
// already set in the environment win over .env entries.
func parse(target any) error {
	_ = godotenv.Load(".env")
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
