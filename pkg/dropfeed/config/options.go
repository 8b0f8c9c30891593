package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		switch dbType {
		case "memory":
		case "postgres", "bolt":
			if url == "" {
				return fmt.Errorf("database URL is required for %s", dbType)
			}
		default:
			return fmt.Errorf("database type must be 'memory', 'postgres' or 'bolt', got: %s", dbType)
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate creates the tables on startup
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithAdminToken sets the shared admin secret
func WithAdminToken(token string) Option {
	return func(c *ServerConfig) error {
		if token == "" {
			return fmt.Errorf("admin token cannot be empty")
		}
		c.AdminToken = token
		return nil
	}
}

// WithStrictUpdates reports updates of unknown ids as not found
func WithStrictUpdates(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.StrictUpdates = enabled
		return nil
	}
}

// WithAllowedOrigins sets the CORS allow list
func WithAllowedOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		if len(origins) == 0 {
			return fmt.Errorf("at least one allowed origin is required")
		}
		c.AllowedOrigins = origins
		return nil
	}
}

// WithRequestTimeout bounds request processing time
func WithRequestTimeout(d time.Duration) Option {
	return func(c *ServerConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive, got: %s", d)
		}
		c.RequestTimeout = d
		return nil
	}
}
