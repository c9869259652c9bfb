package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Usage     UsageConfig     `json:"usage"`
	Webhook   WebhookConfig   `json:"webhook"`
	Auth      AuthConfig      `json:"auth"`
	Services  []ServiceConfig `json:"services"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
}

type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// Policy for the shared request counter. OnStoreError must be set
// explicitly; there is no hidden default for the outage direction.
type RateLimitConfig struct {
	DefaultLimit  int    `json:"default_limit"`
	WindowSeconds int    `json:"window_seconds"`
	OnStoreError  string `json:"on_store_error"` // "open" or "closed"
}

func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

func (r RateLimitConfig) FailOpen() bool {
	return r.OnStoreError == "open"
}

type UsageConfig struct {
	BufferSize   int `json:"buffer_size"`
	BatchSize    int `json:"batch_size"`
	FlushSeconds int `json:"flush_seconds"`
}

type WebhookConfig struct {
	MaxInFlight    int `json:"max_in_flight"`
	MaxAttempts    int `json:"max_attempts"`
	TimeoutSeconds int `json:"timeout_seconds"`
	BaseDelayMS    int `json:"base_delay_ms"`
	MaxDelayMS     int `json:"max_delay_ms"`
}

type AuthConfig struct {
	JWTSecret   string `json:"-"`
	ExpiryHours int    `json:"expiry_hours"`
}

type ServiceConfig struct {
	Path   string `json:"path"`
	Target string `json:"target"`
	Scope  string `json:"scope,omitempty"`
}

func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == "" {
		c.Redis.Port = "6379"
	}
	if c.RateLimit.DefaultLimit == 0 {
		c.RateLimit.DefaultLimit = 60
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.Usage.BufferSize == 0 {
		c.Usage.BufferSize = 1000
	}
	if c.Usage.BatchSize == 0 {
		c.Usage.BatchSize = 100
	}
	if c.Usage.FlushSeconds == 0 {
		c.Usage.FlushSeconds = 5
	}
	if c.Webhook.MaxInFlight == 0 {
		c.Webhook.MaxInFlight = 10
	}
	if c.Webhook.MaxAttempts == 0 {
		c.Webhook.MaxAttempts = 5
	}
	if c.Webhook.TimeoutSeconds == 0 {
		c.Webhook.TimeoutSeconds = 10
	}
	if c.Webhook.BaseDelayMS == 0 {
		c.Webhook.BaseDelayMS = 1000
	}
	if c.Webhook.MaxDelayMS == 0 {
		c.Webhook.MaxDelayMS = 60000
	}
	if c.Auth.ExpiryHours == 0 {
		c.Auth.ExpiryHours = 24
	}
}

// Secrets come from the environment, never the config file
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.Redis.Port = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
}

func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database DSN is required (set DATABASE_URL)")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required (set JWT_SECRET)")
	}
	switch c.RateLimit.OnStoreError {
	case "open", "closed":
	default:
		return fmt.Errorf("rate_limit.on_store_error must be %q or %q, got %q",
			"open", "closed", c.RateLimit.OnStoreError)
	}
	return nil
}
