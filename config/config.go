// Package config loads service settings from an optional file and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/layer-3/flowkey/logger"
)

// ErrMissingSecret is returned when no token signing secret is configured
var ErrMissingSecret = errors.New("auth.jwt_secret (JWT_SECRET) is required")

// Config is the root service configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Store     StoreConfig     `mapstructure:"store"`
	Events    EventsConfig    `mapstructure:"events"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       logger.Config   `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	BasePath        string        `mapstructure:"base_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"` // empty: client IP is the socket peer
}

// Addr returns the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	if strings.Contains(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	ChallengeTTL time.Duration `mapstructure:"challenge_ttl"`
	Schemes      []string      `mapstructure:"schemes"`
}

type StoreConfig struct {
	Driver        string        `mapstructure:"driver"` // memory, bolt or redis
	RedisURL      string        `mapstructure:"redis_url"`
	BoltPath      string        `mapstructure:"bolt_path"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type EventsConfig struct {
	Driver string `mapstructure:"driver"` // none, gochannel or redis
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"` // 0 disables limiting
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_path", "/api")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", time.Hour)
	v.SetDefault("auth.challenge_ttl", 5*time.Minute)
	v.SetDefault("auth.schemes", []string{"solana"})

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.bolt_path", "flowkey.db")
	v.SetDefault("store.sweep_interval", time.Minute)

	v.SetDefault("events.driver", "none")

	v.SetDefault("rate_limit.requests_per_second", 5.0)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("cors.allow_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.max_backups", 3)
}

// Load reads path (when non-empty), applies FLOWKEY_* environment overrides
// plus the bare PORT and JWT_SECRET variables, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("flowkey")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "FLOWKEY_SERVER_PORT", "PORT")
	_ = v.BindEnv("auth.jwt_secret", "FLOWKEY_AUTH_JWT_SECRET", "JWT_SECRET")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings the service cannot run without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingSecret
	}
	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("server.trusted_proxies: %q is neither an IP nor a CIDR", p)
			}
		}
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if c.Auth.ChallengeTTL <= 0 {
		return fmt.Errorf("auth.challenge_ttl must be positive")
	}
	if len(c.Auth.Schemes) == 0 {
		return fmt.Errorf("auth.schemes must name at least one scheme")
	}

	switch c.Store.Driver {
	case "memory":
	case "bolt":
		if c.Store.BoltPath == "" {
			return fmt.Errorf("store.bolt_path is required for the bolt driver")
		}
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	switch c.Events.Driver {
	case "none", "gochannel":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis event driver")
		}
	default:
		return fmt.Errorf("unknown events.driver %q", c.Events.Driver)
	}

	if c.RateLimit.RequestsPerSecond < 0 || (c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit needs a positive burst when enabled")
	}

	return nil
}
