package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	AuthModeJWT = "jwt"
	AuthModeDev = "dev"

	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config is the API server configuration. Values come from an optional YAML file and are
// then overridden by environment variables.
type Config struct {
	Port            string        `yaml:"port"`
	PublicBaseURL   string        `yaml:"public_base_url"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

type AuthConfig struct {
	Mode       string    `yaml:"mode"` // jwt, dev
	DevSubject string    `yaml:"dev_subject"`
	DevIssuer  string    `yaml:"dev_issuer"`
	JWT        JWTConfig `yaml:"jwt"`
}

// StoreIssuer is the issuer stored subjects are scoped to under the configured auth mode.
func (a AuthConfig) StoreIssuer() string {
	if a.Mode == AuthModeDev {
		return a.DevIssuer
	}
	return a.JWT.Issuer
}

type StorageConfig struct {
	Backend     string `yaml:"backend"` // memory, postgres, sqlite
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`

	// IdempotencyTTL is how long PATCH replay records are kept before being purged.
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		PublicBaseURL:   "http://localhost:8080",
		ShutdownTimeout: 10 * time.Second,
		Auth: AuthConfig{
			Mode:       AuthModeJWT,
			DevSubject: "dev|local",
			DevIssuer:  "dev",
			JWT:        DefaultJWTConfig(),
		},
		Storage: StorageConfig{
			Backend:        BackendMemory,
			SQLitePath:     "cards.db",
			IdempotencyTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path (if non-empty and present), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.Port, "PORT")
	setString(&c.PublicBaseURL, "PUBLIC_BASE_URL")
	setString(&c.Auth.Mode, "AUTH_MODE")
	setString(&c.Auth.DevSubject, "DEV_SUBJECT")
	setString(&c.Auth.DevIssuer, "DEV_ISSUER")
	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.DatabaseURL, "DATABASE_URL")
	setString(&c.Storage.SQLitePath, "SQLITE_PATH")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	if err := setDuration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return err
	}
	if err := setDuration(&c.Storage.IdempotencyTTL, "IDEMPOTENCY_TTL", "24h"); err != nil {
		return err
	}
	return c.Auth.JWT.applyEnv()
}

// Validate checks enum values and backend-specific requirements.
// JWT settings are checked separately by the server since the CLI never verifies tokens.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeJWT, AuthModeDev:
	default:
		return fmt.Errorf("AUTH_MODE must be jwt or dev, got %q", c.Auth.Mode)
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be memory, postgres or sqlite, got %q", c.Storage.Backend)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Storage.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be positive")
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
