// Package cli implements the blockforge command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/buildinfo"
	"github.com/matzehuels/blockforge/pkg/cache"
	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/eventstore"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "blockforge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "blockforge",
		Short:        "Blockforge is a block-program graph engine",
		Long:         `Blockforge manages workspaces of connected program blocks with full undo/redo, serves them over a REST API, and renders them as diagrams from persisted event logs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to blockforge.toml")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.definitionsCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Factories
// =============================================================================

// loadConfig reads the effective configuration for the current command.
func (c *CLI) loadConfig() (*Config, error) {
	return LoadConfig(c.configPath)
}

// newRegistry loads block definitions from the configured file, or the
// built-in set when none is configured.
func (c *CLI) newRegistry(cfg *Config) (*block.Registry, error) {
	if cfg.Definitions == "" {
		c.Logger.Debug("using built-in block definitions")
		return block.ParseDefinitions([]byte(defaultDefinitions))
	}
	c.Logger.Debug("loading block definitions", "path", cfg.Definitions)
	return block.LoadDefinitions(cfg.Definitions)
}

// artifactCache returns the on-disk render artifact cache, or a null cache
// when caching is disabled or the cache directory is unavailable.
func (c *CLI) artifactCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("render cache unavailable", "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// cacheDir returns the cache directory using XDG standard (~/.cache/blockforge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// newStore creates the configured event store backend.
func (c *CLI) newStore(ctx context.Context, cfg *Config) (eventstore.Store, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return eventstore.NewMemoryStore(), nil
	case "file":
		return eventstore.NewFileStore(cfg.Store.Dir)
	case "redis":
		return eventstore.NewRedisStore(ctx, eventstore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case "mongo":
		return eventstore.NewMongoStore(ctx, eventstore.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"unknown store backend %q (want memory, file, redis, or mongo)", cfg.Store.Backend)
	}
}
