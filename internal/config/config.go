// Package config loads service settings from an optional config.yaml and
// SIMP_* environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

const minSecretLen = 32

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	CORSOrigin   string
	CookieSecure bool
	Location     *time.Location
	// TrustProxyHeaders makes rate limiting key on CF-Connecting-IP or
	// X-Forwarded-For. Only enable it behind a proxy that sets them.
	TrustProxyHeaders bool
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// EncryptionKey seals the session cookie when set. 32 bytes.
	EncryptionKey []byte
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads config.yaml from ./config, . or /etc/simp/ if present, then
// applies SIMP_* environment overrides and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/simp/")

	v.SetEnvPrefix("SIMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:              v.GetString("port"),
			CORSOrigin:        v.GetString("cors_origin"),
			CookieSecure:      v.GetBool("cookie_secure"),
			TrustProxyHeaders: v.GetBool("trust_proxy_headers"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("db_path"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("jwt_secret"),
			TokenTTL:  v.GetDuration("token_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	cfg.Server.Location = loc

	if key := v.GetString("encryption_key"); key != "" {
		decoded, err := base64.StdEncoding.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("decode encryption key: %w", err)
		}
		cfg.Auth.EncryptionKey = decoded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "simp.db")
	v.SetDefault("token_ttl", time.Hour)
	v.SetDefault("cookie_secure", false)
	v.SetDefault("trust_proxy_headers", false)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	// Bound so AutomaticEnv picks them up even without a default value.
	for _, key := range []string{"jwt_secret", "encryption_key", "cors_origin"} {
		v.SetDefault(key, "")
	}
}

func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < minSecretLen {
		return fmt.Errorf("SIMP_JWT_SECRET must be at least %d bytes", minSecretLen)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("SIMP_TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.EncryptionKey != nil && len(c.Auth.EncryptionKey) != 32 {
		return fmt.Errorf("SIMP_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(c.Auth.EncryptionKey))
	}
	switch c.Log.Format {
	case "text", "json", "tint":
	default:
		return fmt.Errorf("SIMP_LOG_FORMAT must be text, json or tint, got %q", c.Log.Format)
	}
	if c.Database.Path == "" {
		return errors.New("SIMP_DB_PATH must not be empty")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
