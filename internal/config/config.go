package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	LogLevel        string   `mapstructure:"LOG_LEVEL"`
	AuthMode        string   `mapstructure:"AUTH_MODE"`
	AuthIssuer      string   `mapstructure:"AUTH_ISSUER"`
	AuthAudience    string   `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL     string   `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey  string   `mapstructure:"AUTH_SIGNING_KEY"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir   string   `mapstructure:"MIGRATIONS_DIR"`
	MaxDocumentSize string   `mapstructure:"MAX_DOCUMENT_SIZE"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ConcurrentExtraction bool          `mapstructure:"CONCURRENT_EXTRACTION"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_MODE", "") // auto-detect: "" -> inferred from ENV
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("MAX_DOCUMENT_SIZE", "10M")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("CONCURRENT_EXTRACTION", false)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "AUTH_MODE", "AUTH_ISSUER", "AUTH_AUDIENCE",
		"AUTH_JWKS_URL", "AUTH_SIGNING_KEY", "DATABASE_URL", "DB_MAX_CONNS",
		"DB_MIN_CONNS", "MIGRATIONS_DIR", "MAX_DOCUMENT_SIZE", "CORS_ORIGINS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT", "CONCURRENT_EXTRACTION",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.IsDev() && cfg.ResolvedAuthMode() == "development" {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development); requests are not authenticated.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HasDatabase reports whether extraction runs are persisted to Postgres.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise ENV=development resolves to "development"
// and everything else to "jwt".
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	return "jwt"
}

// Validate checks that the configuration is safe to run. In jwt mode a JWKS
// URL or a shared signing key must be present, and development auth is never
// allowed in production.
func (c *Config) Validate() error {
	mode := c.ResolvedAuthMode()
	if mode != "development" && mode != "jwt" {
		return fmt.Errorf("AUTH_MODE must be \"development\" or \"jwt\", got %q", mode)
	}
	if mode == "jwt" && c.AuthJWKSURL == "" && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_JWKS_URL or AUTH_SIGNING_KEY must be set when AUTH_MODE is \"jwt\" (current ENV=%q)", c.Env)
	}
	if mode == "development" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE \"development\" is not allowed when ENV=production")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
