// Package config carga la configuración: defaults, archivo YAML opcional y variables de entorno.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"

	"vet-clinic-records/internal/platform/logger"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Session   SessionConfig   `koanf:"session"`
	Security  SecurityConfig  `koanf:"security"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Log       LogConfig       `koanf:"log"`
	Bootstrap BootstrapConfig `koanf:"bootstrap"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig: URL vacía = almacenamiento en memoria.
type DatabaseConfig struct {
	URL         string `koanf:"url"`
	MaxConns    int32  `koanf:"max_conns"`
	MinConns    int32  `koanf:"min_conns"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// RedisConfig: URL vacía = sesiones y rate limit en proceso.
type RedisConfig struct {
	URL      string `koanf:"url"`
	PoolSize int    `koanf:"pool_size"`
}

type SessionConfig struct {
	TTL          time.Duration `koanf:"ttl"`
	CookieName   string        `koanf:"cookie_name"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

type SecurityConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

type RateLimitConfig struct {
	LoginRequests int           `koanf:"login_requests"`
	LoginWindow   time.Duration `koanf:"login_window"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// BootstrapConfig crea el primer admin si la tabla de usuarios está vacía.
type BootstrapConfig struct {
	AdminUsername string `koanf:"admin_username"`
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "vet-clinic-records",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "15s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_conns":    10,
		"database.min_conns":    1,
		"database.auto_migrate": true,

		"redis.pool_size": 10,

		"session.ttl":           "12h",
		"session.cookie_name":   "vet_session",
		"session.cookie_secure": false,

		"security.bcrypt_cost": bcrypt.DefaultCost,

		"rate_limit.login_requests": 10,
		"rate_limit.login_window":   "1m",

		"log.level":  "info",
		"log.format": "json",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}

var envKeyMap = map[string]string{
	"APP_NAME":                 "app.name",
	"ENVIRONMENT":              "app.environment",
	"HOST":                     "server.host",
	"PORT":                     "server.port",
	"SHUTDOWN_TIMEOUT":         "server.shutdown_timeout",
	"DATABASE_URL":             "database.url",
	"DATABASE_MAX_CONNS":       "database.max_conns",
	"DATABASE_MIN_CONNS":       "database.min_conns",
	"DATABASE_AUTO_MIGRATE":    "database.auto_migrate",
	"REDIS_URL":                "redis.url",
	"REDIS_POOL_SIZE":          "redis.pool_size",
	"SESSION_TTL":              "session.ttl",
	"SESSION_COOKIE_NAME":      "session.cookie_name",
	"SESSION_COOKIE_SECURE":    "session.cookie_secure",
	"BCRYPT_COST":              "security.bcrypt_cost",
	"LOGIN_RATE_LIMIT":         "rate_limit.login_requests",
	"LOGIN_RATE_WINDOW":        "rate_limit.login_window",
	"LOG_LEVEL":                "log.level",
	"LOG_FORMAT":               "log.format",
	"BOOTSTRAP_ADMIN_USER":     "bootstrap.admin_username",
	"BOOTSTRAP_ADMIN_EMAIL":    "bootstrap.admin_email",
	"BOOTSTRAP_ADMIN_PASSWORD": "bootstrap.admin_password",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return errors.New("server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return errors.New("server.write_timeout must be positive")
	}
	if c.Server.IdleTimeout <= 0 {
		return errors.New("server.idle_timeout must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}

	if c.Session.TTL < time.Minute {
		return errors.New("session.ttl must be at least 1m")
	}
	if c.Session.CookieName == "" {
		return errors.New("session.cookie_name is required")
	}

	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("security.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if c.RateLimit.LoginRequests <= 0 {
		return errors.New("rate_limit.login_requests must be positive")
	}
	if c.RateLimit.LoginWindow <= 0 {
		return errors.New("rate_limit.login_window must be positive")
	}

	if c.Database.MaxConns < 0 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return errors.New("database.min_conns/max_conns are inconsistent")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not valid", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not valid", c.Log.Format)
	}

	b := c.Bootstrap
	if b.AdminUsername != "" && (b.AdminEmail == "" || b.AdminPassword == "") {
		return errors.New("bootstrap.admin_email and bootstrap.admin_password are required with bootstrap.admin_username")
	}

	if c.IsProduction() && !c.Session.CookieSecure {
		return errors.New("session.cookie_secure must be true in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) UsesPostgres() bool { return c.Database.URL != "" }

func (c *Config) UsesRedis() bool { return c.Redis.URL != "" }

func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:  logger.ParseLevel(c.Log.Level),
		Format: logger.ParseFormat(c.Log.Format),
		App:    c.App.Name,
	}
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
