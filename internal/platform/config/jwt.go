package config

import (
	"fmt"
	"os"
	"time"
)

// JWTConfig configures bearer token verification against the identity provider's JWKS.
// It is only consulted when auth.mode is jwt.
type JWTConfig struct {
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	JWKSURL  string `yaml:"jwks_url"`

	ClockSkew              time.Duration `yaml:"clock_skew"`
	JWKSRefreshInterval    time.Duration `yaml:"jwks_refresh_interval"`
	JWKSMinRefreshInterval time.Duration `yaml:"jwks_min_refresh_interval"`

	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		ClockSkew: 30 * time.Second,
		// Picks up key rotation even while an old key is still cached.
		JWKSRefreshInterval: 5 * time.Minute,
		// Lower bound between refreshes triggered by an unknown kid.
		JWKSMinRefreshInterval: 10 * time.Second,
		HTTPTimeout:            5 * time.Second,
	}
}

func (c *JWTConfig) applyEnv() error {
	setString(&c.Issuer, "JWT_ISSUER")
	setString(&c.Audience, "JWT_AUDIENCE")
	setString(&c.JWKSURL, "JWT_JWKS_URL")
	if err := setDuration(&c.ClockSkew, "JWT_CLOCK_SKEW", "30s"); err != nil {
		return err
	}
	if err := setDuration(&c.JWKSRefreshInterval, "JWT_JWKS_REFRESH_INTERVAL", "5m"); err != nil {
		return err
	}
	if err := setDuration(&c.JWKSMinRefreshInterval, "JWT_JWKS_MIN_REFRESH_INTERVAL", "10s"); err != nil {
		return err
	}
	return setDuration(&c.HTTPTimeout, "JWT_HTTP_TIMEOUT", "5s")
}

func (c JWTConfig) Validate() error {
	if c.Issuer == "" || c.Audience == "" || c.JWKSURL == "" {
		return fmt.Errorf("missing required JWT settings: JWT_ISSUER, JWT_AUDIENCE, JWT_JWKS_URL")
	}
	if c.ClockSkew < 0 {
		return fmt.Errorf("JWT_CLOCK_SKEW must not be negative")
	}
	if c.JWKSMinRefreshInterval > c.JWKSRefreshInterval {
		return fmt.Errorf("JWT_JWKS_MIN_REFRESH_INTERVAL must not exceed JWT_JWKS_REFRESH_INTERVAL")
	}
	return nil
}

func setDuration(dst *time.Duration, env, example string) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s must be a duration (e.g. %s): %w", env, example, err)
	}
	*dst = d
	return nil
}
