package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/dropfeed/pkg/dropfeed"
	repobolt "github.com/tendant/dropfeed/pkg/dropfeed/repo/bolt"
	"github.com/tendant/dropfeed/pkg/dropfeed/repo/memory"
	repopg "github.com/tendant/dropfeed/pkg/dropfeed/repo/postgres"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:           "3000",
		Environment:    "development",
		DatabaseType:   "memory",
		AllowedOrigins: []string{"*"},
		RequestTimeout: 60 * time.Second,
	}
}

// ServerConfig is built once at process start and handed to every component
// that needs it.
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres", "bolt"
	DBSchema     string // Postgres search_path (optional)
	AutoMigrate  bool   // create tables on startup

	// Admin
	AdminToken string

	// StrictUpdates turns an update of an unknown id into a 404 instead of
	// a 200 with a null id.
	StrictUpdates bool

	// HTTP
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "postgres", "bolt":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return errors.New("database_type must be 'memory', 'postgres' or 'bolt'")
	}

	if c.AdminToken == "" {
		return errors.New("admin_token is required")
	}

	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}

	return nil
}

// Store is a repository serving both posts and airdrops.
type Store interface {
	dropfeed.PostRepository
	dropfeed.AirdropRepository
}

// BuildStore creates the repository described by the configuration. The
// returned close function releases the connection pool, if any.
func (c *ServerConfig) BuildStore(ctx context.Context) (Store, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), func() {}, nil
	case "postgres":
		pool, err := NewPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, nil, err
		}
		repo := repopg.NewWithPool(pool)
		if c.AutoMigrate {
			if err := repo.EnsureSchema(ctx); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
			}
		}
		return repo, pool.Close, nil
	case "bolt":
		repo, err := repobolt.Open(c.DatabaseURL, slog.Default())
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (dropfeed.Service, func(), error) {
	store, closeStore, err := c.BuildStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	svc, err := dropfeed.New(
		dropfeed.WithPostRepository(store),
		dropfeed.WithAirdropRepository(store),
		dropfeed.WithLogger(logger),
	)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return svc, closeStore, nil
}

// NewPool opens a pgx pool for databaseURL, setting search_path to schema
// on every connection when schema is not empty.
func NewPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}
