package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig mirrors the environment variables understood by WithEnv.
// Variables that are not set leave the corresponding field untouched.
type envConfig struct {
	Port           string        `env:"PORT" env-description:"HTTP listen port"`
	Environment    string        `env:"ENVIRONMENT" env-description:"development, production or testing"`
	DatabaseURL    string        `env:"DATABASE_URL" env-description:"postgres:// connection string, bolt://<file>, or 'memory'"`
	DBSchema       string        `env:"DB_SCHEMA" env-description:"Postgres search_path"`
	AutoMigrate    bool          `env:"AUTO_MIGRATE" env-description:"create tables on startup"`
	AdminToken     string        `env:"ADMIN_TOKEN" env-description:"shared secret for /admin routes"`
	StrictUpdates  bool          `env:"STRICT_UPDATES" env-description:"answer 404 when an update targets an unknown id"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-description:"CORS allow list"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-description:"per-request timeout"`
}

// WithEnv applies environment variable overrides.
//
// Environment variable mapping:
//
//	PORT                 - Server port (default: "3000")
//	ENVIRONMENT          - Runtime environment (default: "development")
//	DATABASE_URL         - "postgres://..." or "postgresql://..." selects Postgres;
//	                       "bolt://<file>" selects an embedded bbolt file;
//	                       empty or "memory" selects the in-memory store
//	DB_SCHEMA            - Postgres search_path
//	AUTO_MIGRATE         - Create tables on startup (default: false)
//	ADMIN_TOKEN          - Shared admin secret (required)
//	STRICT_UPDATES       - 404 on updates of unknown ids (default: false)
//	CORS_ALLOWED_ORIGINS - Comma separated origins (default: "*")
//	REQUEST_TIMEOUT      - Request timeout, e.g. "30s" (default: "60s")
func WithEnv() Option {
	return func(c *ServerConfig) error {
		env := envConfig{
			Port:           c.Port,
			Environment:    c.Environment,
			DatabaseURL:    c.DatabaseURL,
			DBSchema:       c.DBSchema,
			AutoMigrate:    c.AutoMigrate,
			AdminToken:     c.AdminToken,
			StrictUpdates:  c.StrictUpdates,
			AllowedOrigins: c.AllowedOrigins,
			RequestTimeout: c.RequestTimeout,
		}
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		c.Port = env.Port
		c.Environment = env.Environment
		c.DBSchema = env.DBSchema
		c.AutoMigrate = env.AutoMigrate
		c.AdminToken = env.AdminToken
		c.StrictUpdates = env.StrictUpdates
		c.AllowedOrigins = env.AllowedOrigins
		c.RequestTimeout = env.RequestTimeout

		return applyDatabaseURL(env.DatabaseURL, c)
	}
}

// applyDatabaseURL selects the database type from the connection string
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	if dbURL == "" || dbURL == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	if strings.HasPrefix(dbURL, "postgresql://") || strings.HasPrefix(dbURL, "postgres://") {
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
		return nil
	}

	if path, ok := strings.CutPrefix(dbURL, "bolt://"); ok && path != "" {
		c.DatabaseType = "bolt"
		c.DatabaseURL = path
		return nil
	}

	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'bolt://<file>' or 'postgresql://...')", redact(dbURL))
}

// redact hides everything after the scheme so credentials stay out of logs
func redact(dbURL string) string {
	if i := strings.Index(dbURL, "://"); i >= 0 {
		return dbURL[:i+3] + "..."
	}
	return "..."
}

// Usage describes the environment variables WithEnv reads.
func Usage() string {
	desc, err := cleanenv.GetDescription(&envConfig{}, nil)
	if err != nil {
		return ""
	}
	return desc
}
