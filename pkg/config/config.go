// Package config loads the nodeflow host configuration from TOML.
//
// A missing file at the default location is not an error; every setting has
// a default. Example:
//
//	[log]
//	level = "debug"
//
//	[engine]
//	max_subgraph_depth = 10
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "nodeflow"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/nodeflow/pkg/errors"
)

const appName = "nodeflow"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreFile  = "file"
	StoreMongo = "mongo"
)

// Config is the complete host configuration.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Engine EngineConfig `toml:"engine"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// EngineConfig configures evaluation.
type EngineConfig struct {
	MaxSubgraphDepth int `toml:"max_subgraph_depth"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"` // empty means $XDG_CACHE_HOME/nodeflow
	TTL       Duration `toml:"ttl"`
	RedisAddr string   `toml:"redis_addr"`
	Prefix    string   `toml:"prefix"` // prepended to every key
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"` // empty means ~/.local/share/nodeflow/graphs
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Duration is a time.Duration written as a Go duration string ("90s", "24h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info"},
		Engine: EngineConfig{MaxSubgraphDepth: 10},
		Cache:  CacheConfig{Backend: CacheFile, TTL: Duration{7 * 24 * time.Hour}},
		Store:  StoreConfig{Backend: StoreFile},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/nodeflow/config.toml, falling back to
// ~/.config/nodeflow/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the configuration at path on top of [Default]. An empty path
// loads [DefaultPath] and tolerates its absence; an explicit path must exist.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidConfig, err, "load %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, apperr.New(apperr.CodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, apperr.New(apperr.CodeInvalidConfig, format, args...))
	}

	if _, err := c.Log.ParsedLevel(); err != nil {
		bad("log.level: %v", err)
	}
	if c.Engine.MaxSubgraphDepth <= 0 {
		bad("engine.max_subgraph_depth must be positive, got %d", c.Engine.MaxSubgraphDepth)
	}

	if !slices.Contains([]string{CacheFile, CacheRedis, CacheNone}, c.Cache.Backend) {
		bad("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		bad("cache.redis_addr is required for the redis backend")
	}
	if c.Cache.TTL.Duration < 0 {
		bad("cache.ttl must not be negative")
	}

	switch c.Store.Backend {
	case StoreFile:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			bad("store.mongo_uri is required for the mongo backend")
		}
		if c.Store.MongoDatabase == "" {
			bad("store.mongo_database is required for the mongo backend")
		}
	default:
		bad("store.backend: unknown backend %q", c.Store.Backend)
	}
	return errors.Join(errs...)
}

// ParsedLevel returns the configured log level.
func (l LogConfig) ParsedLevel() (log.Level, error) {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return 0, fmt.Errorf("invalid level %q", l.Level)
	}
	return level, nil
}
