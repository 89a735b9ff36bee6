// Package config carga la configuración del servicio desde YAML con
// overrides por variables de entorno. El .env (si existe) lo carga main con
// godotenv antes de llamar Load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr         string `yaml:"addr"`
		MetricsAddr  string `yaml:"metrics_addr"` // vacío = /metrics en el addr principal
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		Migrate bool `yaml:"migrate"`
	} `yaml:"storage"`

	Cache struct {
		// redis | memory — backend del rate limiter
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	// Auth es la configuración del flujo de login por código. Se pasa como
	// struct explícito al service: nada de lookups globales en runtime.
	Auth struct {
		Digits           int    `yaml:"digits"`
		ExpiresInMinutes int    `yaml:"expires_in_minutes"`
		MaxAttempts      int    `yaml:"max_attempts"`
		LockMinutes      int    `yaml:"lock_minutes"`
		RateLimitPerHour int    `yaml:"rate_limit_per_hour"`
		CodeStrategy     string `yaml:"code_strategy"` // random | fixed
		FixedSeed        string `yaml:"fixed_seed"`
	} `yaml:"auth"`

	Token struct {
		// HMACKey firma los hashes de access tokens. Obligatoria en prod.
		HMACKey string `yaml:"hmac_key"`
		Bytes   int    `yaml:"bytes"`
	} `yaml:"token"`

	Session struct {
		Secret string `yaml:"secret"`
		Issuer string `yaml:"issuer"`
		TTL    string `yaml:"ttl"`
	} `yaml:"session"`

	Admin struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"admin"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	Cleanup struct {
		Interval string `yaml:"interval"`
	} `yaml:"cleanup"`
}

// Load lee el YAML (si path no está vacío), aplica overrides de entorno y
// defaults, y valida.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnv()
	c.applyDefaults()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	setStr(&c.App.Env, "APP_ENV")
	setStr(&c.App.LogLevel, "LOG_LEVEL")
	setStr(&c.Server.Addr, "SERVER_ADDR")
	setStr(&c.Server.MetricsAddr, "METRICS_ADDR")
	setStr(&c.Storage.Driver, "STORAGE_DRIVER")
	setStr(&c.Storage.DSN, "DATABASE_DSN")
	setBool(&c.Storage.Migrate, "STORAGE_MIGRATE")
	setStr(&c.Cache.Kind, "CACHE_KIND")
	setStr(&c.Cache.Redis.Addr, "REDIS_ADDR")
	setStr(&c.Token.HMACKey, "TOKEN_HMAC_KEY")
	setStr(&c.Session.Secret, "SESSION_SECRET")
	setStr(&c.Admin.APIKey, "ADMIN_API_KEY")
	setStr(&c.SMTP.Host, "SMTP_HOST")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setStr(&c.SMTP.Username, "SMTP_USERNAME")
	setStr(&c.SMTP.Password, "SMTP_PASSWORD")
	setStr(&c.SMTP.From, "SMTP_FROM")
	setInt(&c.Auth.Digits, "AUTH_DIGITS")
	setInt(&c.Auth.MaxAttempts, "AUTH_MAX_ATTEMPTS")
	setStr(&c.Auth.CodeStrategy, "AUTH_CODE_STRATEGY")
	setStr(&c.Auth.FixedSeed, "AUTH_FIXED_SEED")
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "authgate:rl:"
	}
	if c.Auth.Digits == 0 {
		c.Auth.Digits = 6
	}
	if c.Auth.ExpiresInMinutes == 0 {
		c.Auth.ExpiresInMinutes = 15
	}
	if c.Auth.MaxAttempts == 0 {
		c.Auth.MaxAttempts = 8
	}
	if c.Auth.LockMinutes == 0 {
		c.Auth.LockMinutes = 15
	}
	if c.Auth.RateLimitPerHour == 0 {
		c.Auth.RateLimitPerHour = 5
	}
	if c.Auth.CodeStrategy == "" {
		// fixed es solo por opt-in explícito, incluso en dev
		c.Auth.CodeStrategy = "random"
	}
	if c.Token.Bytes == 0 {
		c.Token.Bytes = 32
	}
	if c.Session.Issuer == "" {
		c.Session.Issuer = "authgate"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "1h"
	}
	if c.Cleanup.Interval == "" {
		c.Cleanup.Interval = "1h"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage.dsn is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Cache.Kind {
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("config: cache.redis.addr is required for the redis cache")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown cache.kind %q", c.Cache.Kind)
	}

	switch c.Auth.CodeStrategy {
	case "random":
	case "fixed":
		if c.App.Env == "prod" {
			return fmt.Errorf("config: fixed code strategy is not allowed in prod")
		}
	default:
		return fmt.Errorf("config: unknown auth.code_strategy %q", c.Auth.CodeStrategy)
	}

	if c.App.Env == "prod" {
		if c.Token.HMACKey == "" {
			return fmt.Errorf("config: token.hmac_key is required in prod")
		}
		if c.Session.Secret == "" {
			return fmt.Errorf("config: session.secret is required in prod")
		}
	}
	return nil
}

// SessionTTL parsea session.ttl (ya validado el default).
func (c *Config) SessionTTL() time.Duration {
	return parseDuration(c.Session.TTL, time.Hour)
}

// CleanupInterval parsea cleanup.interval.
func (c *Config) CleanupInterval() time.Duration {
	return parseDuration(c.Cleanup.Interval, time.Hour)
}

// ChallengeTTL es la vida útil de un challenge.
func (c *Config) ChallengeTTL() time.Duration {
	return time.Duration(c.Auth.ExpiresInMinutes) * time.Minute
}

// LockWindow es la duración del lockout por intentos fallidos.
func (c *Config) LockWindow() time.Duration {
	return time.Duration(c.Auth.LockMinutes) * time.Minute
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}
