package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/artpar/biscuit/internal/config"
	"github.com/artpar/biscuit/internal/jar"
	"github.com/artpar/biscuit/internal/jar/memory"
	"github.com/artpar/biscuit/internal/jar/redis"
	"github.com/artpar/biscuit/internal/jar/sqlite"
)

// rootOptions holds the global flags every subcommand shares.
type rootOptions struct {
	configPath string
	backend    string
	dbPath     string
	redisURL   string
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "biscuit",
		Short:   "Biscuit - a persistent cookie jar",
		Long:    "Biscuit keeps the cookies an HTTP client has seen and answers which of them apply to a request URI, using browser-style domain and path matching.",
		Version: version,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file path")
	flags.StringVar(&opts.backend, "backend", "", "Storage backend: sqlite, memory or redis")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database path")
	flags.StringVar(&opts.redisURL, "redis-url", "", "Redis connection URL")

	// Add subcommands
	cmd.AddCommand(
		NewListCommand(opts),
		NewGetCommand(opts),
		NewSetCommand(opts),
		NewRmCommand(opts),
		NewClearCommand(opts),
		NewOriginsCommand(opts),
		NewSweepCommand(opts),
		NewExportCommand(opts),
		NewImportCommand(opts),
	)

	return cmd
}

// loadConfig reads the config file and lays the global flags on top.
func loadConfig(opts *rootOptions) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	// Flags win over file and environment values.
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.redisURL != "" {
		cfg.RedisURL = opts.redisURL
	}
	return cfg, nil
}

// openStore builds the record store for the configured backend.
func openStore(ctx context.Context, cfg config.Config) (jar.Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return sqlite.New(cfg.DBPath)
	case "memory":
		return memory.New(), nil
	case "redis":
		return redis.Open(ctx, cfg.RedisURL, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// openJar loads the config and opens the jar over its store. The
// caller closes the returned store.
func openJar(ctx context.Context, opts *rootOptions) (*jar.Jar, jar.Store, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	jarOpts := []jar.Option{jar.WithLogger(logger)}
	if cfg.MaxCookies > 0 {
		jarOpts = append(jarOpts, jar.WithMaxCookies(cfg.MaxCookies))
	}
	if cfg.Hysteresis > 0 {
		jarOpts = append(jarOpts, jar.WithHysteresis(cfg.Hysteresis))
	}

	return jar.New(store, jarOpts...), store, nil
}
