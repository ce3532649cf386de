// Package config loads scanner configuration from TOML.
//
// Every field has a working default, so a missing config file is not an
// error: the zero-config path scans against public PyPI with the file
// cache. CLI flags override whatever the file provides.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/depscout/depscout/pkg/errors"
)

// Config is the full configuration tree.
type Config struct {
	Registry RegistryConfig `toml:"registry"`
	Lookup   LookupConfig   `toml:"lookup"`
	Cache    CacheConfig    `toml:"cache"`
	Scan     ScanConfig     `toml:"scan"`
}

// RegistryConfig selects the registry endpoint.
type RegistryConfig struct {
	BaseURL string `toml:"base_url"`
}

// LookupConfig tunes existence lookups.
type LookupConfig struct {
	Concurrency int  `toml:"concurrency"`
	Retries     int  `toml:"retries"`
	Refresh     bool `toml:"refresh"`
}

// CacheConfig selects and tunes the lookup cache backend.
type CacheConfig struct {
	// Backend is one of "file", "memory", "redis", "mongo", "none".
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	TTLHours int    `toml:"ttl_hours"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// ScanConfig tunes extraction.
type ScanConfig struct {
	// DynamicAttribution is "all" or "first": whether every dynamic list
	// feeding a section is attributed, or only the first.
	DynamicAttribution string   `toml:"dynamic_attribution"`
	Deny               []string `toml:"deny"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Registry: RegistryConfig{BaseURL: "https://pypi.org"},
		Lookup:   LookupConfig{Concurrency: 8, Retries: 3},
		Cache:    CacheConfig{Backend: "file", TTLHours: 24, MongoDatabase: "depscout"},
		Scan:     ScanConfig{DynamicAttribution: "all"},
	}
}

// Load reads a TOML config file, layering it over the defaults. An empty
// path returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if err := errors.ValidateURL(c.Registry.BaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "registry.base_url")
	}
	if c.Lookup.Concurrency < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "lookup.concurrency must be at least 1")
	}
	if c.Lookup.Retries < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "lookup.retries must be at least 1")
	}
	switch c.Cache.Backend {
	case "file", "memory", "redis", "mongo", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	if c.Cache.Backend == "mongo" && c.Cache.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.mongo_uri is required for the mongo backend")
	}
	switch c.Scan.DynamicAttribution {
	case "all", "first":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "scan.dynamic_attribution must be \"all\" or \"first\"")
	}
	return nil
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}
