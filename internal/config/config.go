package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
		// AllowedOrigins lists browser origins allowed to call the API; "*" allows any.
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		JWTIssuer string `yaml:"jwt_issuer"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path and applies environment overrides.
// A missing file is not an error; the environment may carry everything.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Auth.JWTSecret = getenv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTIssuer = getenv("JWT_ISSUER", cfg.Auth.JWTIssuer)
	cfg.Auth.TokenTTL = getenv("JWT_EXPIRES_IN", cfg.Auth.TokenTTL)
	cfg.Storage.Driver = getenv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Postgres.URL = getenv("DATABASE_URL", cfg.Postgres.URL)
	cfg.SQLite.Path = getenv("SQLITE_PATH", cfg.SQLite.Path)
	cfg.Redis.Addr = getenv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getenv("REDIS_PASSWORD", cfg.Redis.Password)
	if val := os.Getenv("REDIS_DB"); val != "" {
		db, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %q is not a database number", val)
		}
		cfg.Redis.DB = db
	}
	if val := os.Getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.Server.AllowedOrigins = splitList(val)
	}
	cfg.Log.Level = getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenv("LOG_FORMAT", cfg.Log.Format)
	return nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Auth.JWTIssuer == "" {
		cfg.Auth.JWTIssuer = "quiz-api"
	}
	if cfg.Auth.TokenTTL == "" {
		cfg.Auth.TokenTTL = "720h"
	}
	if cfg.Storage.Driver == "" {
		if cfg.Postgres.URL != "" {
			cfg.Storage.Driver = DriverPostgres
		} else {
			cfg.Storage.Driver = DriverMemory
		}
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "data/quiz.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate reports configuration the server cannot start without.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	ttl, err := parseDuration(c.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("auth.token_ttl: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", ttl)
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return errors.New("postgres url not configured")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// TokenTTL returns the validated token lifetime.
func (c Config) TokenTTL() time.Duration {
	return TTLDuration(c.Auth.TokenTTL, 720*time.Hour)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := parseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// parseDuration accepts Go durations, a whole-day form such as "30d" and a
// bare number of seconds such as "3600".
func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
