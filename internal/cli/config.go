package cli

import (
	"context"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/modelkit/uisync/pkg/cache"
	"github.com/modelkit/uisync/pkg/errors"
	"github.com/modelkit/uisync/pkg/remote"
	"github.com/modelkit/uisync/pkg/remote/mongostore"
)

// defaultConfigFile is looked up in the working directory when --config is
// not given. A missing default file is not an error; flags and built-in
// defaults apply.
const defaultConfigFile = "uisync.toml"

// Config is the TOML configuration file shape. Flags override file values.
type Config struct {
	// Source is the local source directory holding one subtree per record.
	Source string `toml:"source"`
	// Workers sizes the sync worker pool.
	Workers int `toml:"workers"`

	Remote RemoteConfig `toml:"remote"`
	Cache  CacheConfig  `toml:"cache"`
}

// RemoteConfig selects and configures the document store backend.
type RemoteConfig struct {
	// URL is the platform base URL for the HTTP store.
	URL string `toml:"url"`
	// Token is the bearer token sent with every request.
	Token string `toml:"token"`
	// Folder names the shared container folder documents are pushed into.
	Folder string `toml:"folder"`

	// MongoURI, when set, selects the MongoDB store instead of HTTP.
	MongoURI string `toml:"mongo_uri"`
	// MongoDatabase names the database for the MongoDB store.
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig configures remote response caching.
type CacheConfig struct {
	// Backend is "file" (default), "redis" or "none".
	Backend string `toml:"backend"`
	// Dir overrides the file backend's directory.
	Dir string `toml:"dir"`
	// RedisAddr is the redis backend's host:port.
	RedisAddr string `toml:"redis_addr"`
	// RedisPassword authenticates the redis connection, if required.
	RedisPassword string `toml:"redis_password"`
	// RedisDB selects the redis logical database.
	RedisDB int `toml:"redis_db"`
	// TTL bounds cached response age, e.g. "15m". Empty means one hour.
	TTL string `toml:"ttl"`
}

// loadConfig reads the TOML config at path. An empty path tries the default
// file and tolerates its absence.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{
		Source:  "ui-source",
		Workers: 8,
		Remote:  RemoteConfig{Folder: "ui-definitions"},
		Cache:   CacheConfig{Backend: "file"},
	}

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return cfg, nil
}

// cacheTTL parses the configured TTL, defaulting to one hour.
func (c *Config) cacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return time.Hour, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache TTL %q", c.Cache.TTL)
	}
	return d, nil
}

// newCache builds the configured cache backend.
func (c *Config) newCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case "", "file":
		return cache.NewFileCache(c.Cache.Dir)
	case "redis":
		if c.Cache.RedisAddr == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "cache backend redis requires redis_addr")
		}
		return cache.NewRedisCache(ctx, c.Cache.RedisAddr, c.Cache.RedisPassword, c.Cache.RedisDB)
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown cache backend %q, want file, redis or none", c.Cache.Backend)
	}
}

// newStore builds the configured store backend. refresh bypasses cached
// reads on the HTTP store. The returned closer releases store resources.
func (c *Config) newStore(ctx context.Context, refresh bool) (remote.Store, func() error, error) {
	if c.Remote.MongoURI != "" {
		store, err := mongostore.Connect(ctx, c.Remote.MongoURI, c.Remote.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return store.Close(ctx) }, nil
	}

	cch, err := c.newCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	ttl, err := c.cacheTTL()
	if err != nil {
		return nil, nil, err
	}
	client, err := remote.NewClient(remote.Config{
		BaseURL:  c.Remote.URL,
		Token:    c.Remote.Token,
		Cache:    cch,
		CacheTTL: ttl,
		Refresh:  refresh,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, cch.Close, nil
}
