// Package cli implements the nodeflow command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeflow/pkg/cache"
	"github.com/matzehuels/nodeflow/pkg/config"
	"github.com/matzehuels/nodeflow/pkg/docstore"
	"github.com/matzehuels/nodeflow/pkg/pipeline"
	"github.com/matzehuels/nodeflow/pkg/plugin"
	"github.com/matzehuels/nodeflow/pkg/plugin/mathnodes"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "nodeflow"

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
	Config *config.Config

	configPath string // --config
	verbose    bool   // --verbose
}

// New creates a new CLI instance with a default logger and configuration.
// The configuration is replaced when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Collaborator Factories
// =============================================================================

// newRegistry returns a registry with the built-in plugins registered.
func (c *CLI) newRegistry(ctx context.Context) (*plugin.Registry, error) {
	reg := plugin.NewRegistry(c.Logger)
	if err := reg.Register(ctx, mathnodes.Plugin()); err != nil {
		return nil, fmt.Errorf("register %s: %w", mathnodes.PluginID, err)
	}
	return reg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	reg, err := c.newRegistry(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if prefix := c.Config.Cache.Prefix; prefix != "" {
		keyer = cache.NewScopedKeyer(nil, prefix)
	}
	runner := pipeline.NewRunner(reg, ch, keyer, c.Logger)
	runner.MaxSubgraphDepth = c.Config.Engine.MaxSubgraphDepth
	return runner, nil
}

// newCache opens the configured result cache. A file cache whose directory
// cannot be determined degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, c.Config.Cache.RedisAddr)
	default:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newStore opens the configured document store.
func (c *CLI) newStore(ctx context.Context) (docstore.Store, error) {
	if c.Config.Store.Backend == config.StoreMongo {
		return docstore.NewMongoStore(ctx, docstore.MongoConfig{
			URI:        c.Config.Store.MongoURI,
			Database:   c.Config.Store.MongoDatabase,
			Collection: c.Config.Store.MongoCollection,
		})
	}
	return docstore.NewFileStore(c.Config.Store.Dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, falling back to
// [defaultCacheDir].
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return defaultCacheDir()
}

// defaultCacheDir returns the cache directory using XDG standard (~/.cache/nodeflow/).
func defaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// basePath derives the base output path for rendered artifacts. If output is
// empty, the input's extension is stripped; stdin input becomes "graph".
// A known format extension on output is stripped too.
func basePath(output, input string) string {
	if output == "" {
		if input == stdinPath {
			return "graph"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
