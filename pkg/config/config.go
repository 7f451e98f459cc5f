// Package config loads railmap settings from TOML or YAML files.
//
// A file only needs the keys it changes: [Load] decodes on top of [Default],
// applies environment overrides, then validates the result.
//
//	[feed]
//	page_url = "https://map.example.net/index.html"
//
//	[map]
//	route_types = ["train_normal", "boat_normal"]
//
//	[cache]
//	backend = "redis"
//
//	[redis]
//	addr = "localhost:6379"
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/railmap/pkg/cache"
	"github.com/matzehuels/railmap/pkg/errors"
	"github.com/matzehuels/railmap/pkg/network"
)

// Environment variables that override file values.
const (
	EnvFeedURL      = "RAILMAP_FEED_URL"
	EnvRedisAddress = "RAILMAP_REDIS_ADDRESS"
	EnvRedisDB      = "RAILMAP_REDIS_DB"
	EnvMongoURI     = "RAILMAP_MONGO_URI"
	EnvServerAddr   = "RAILMAP_SERVER_ADDR"
)

// Config is the complete railmap configuration.
type Config struct {
	Feed   FeedConfig   `toml:"feed" yaml:"feed"`
	Map    MapConfig    `toml:"map" yaml:"map"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Redis  RedisConfig  `toml:"redis" yaml:"redis"`
	Mongo  MongoConfig  `toml:"mongo" yaml:"mongo"`
	Server ServerConfig `toml:"server" yaml:"server"`
}

// FeedConfig locates the stations-and-routes feed. URL wins over PageURL.
type FeedConfig struct {
	URL      string        `toml:"url" yaml:"url" validate:"omitempty,url"`
	PageURL  string        `toml:"page_url" yaml:"page_url" validate:"omitempty,url"`
	Timeout  time.Duration `toml:"timeout" yaml:"timeout" validate:"gte=0"`
	Attempts int           `toml:"attempts" yaml:"attempts" validate:"gte=0,lte=10"`
}

// MapConfig controls map derivation.
type MapConfig struct {
	RouteTypes      []string `toml:"route_types" yaml:"route_types" validate:"dive,required,max=64"`
	RouteTypeOrder  []string `toml:"route_type_order" yaml:"route_type_order" validate:"dive,required,max=64"`
	OneWay          bool     `toml:"one_way" yaml:"one_way"`
	DiagonalScaling bool     `toml:"diagonal_scaling" yaml:"diagonal_scaling"`
}

// CacheConfig selects the cache backend. Namespace keeps the entries of
// several deployments apart when they share one Redis or MongoDB.
type CacheConfig struct {
	Backend   string        `toml:"backend" yaml:"backend" validate:"oneof=none file redis mongo"`
	Dir       string        `toml:"dir" yaml:"dir" validate:"required_if=Backend file"`
	Namespace string        `toml:"namespace" yaml:"namespace" validate:"max=64"`
	FeedTTL   time.Duration `toml:"feed_ttl" yaml:"feed_ttl" validate:"gte=0"`
	MapTTL    time.Duration `toml:"map_ttl" yaml:"map_ttl" validate:"gte=0"`
}

type RedisConfig struct {
	Addr     string `toml:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
	Password string `toml:"password" yaml:"password"`
	DB       int    `toml:"db" yaml:"db" validate:"gte=0,lte=15"`
}

type MongoConfig struct {
	URI        string `toml:"uri" yaml:"uri"`
	Database   string `toml:"database" yaml:"database"`
	Collection string `toml:"collection" yaml:"collection"`
}

type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr" validate:"required"`
}

// Default returns a configuration that works without a file: no cache,
// one-way detection and diagonal scaling on, and the server on :8080.
func Default() Config {
	return Config{
		Feed: FeedConfig{
			Timeout:  10 * time.Second,
			Attempts: 3,
		},
		Map: MapConfig{
			RouteTypeOrder:  append([]string(nil), network.DefaultRouteTypeOrder...),
			OneWay:          true,
			DiagonalScaling: true,
		},
		Cache: CacheConfig{
			Backend: cache.BackendNone,
			FeedTTL: cache.TTLFeed,
			MapTTL:  cache.TTLMap,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   cache.DefaultMongoDatabase,
			Collection: cache.DefaultMongoCollection,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads path (".toml", ".yaml" or ".yml") over the defaults. An empty
// path skips the file and only applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
			}
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(&cfg, data, filepath.Ext(path)); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses data into cfg. ext picks the format and includes the dot.
func Decode(cfg *Config, data []byte, ext string) error {
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		var md toml.MetaData
		md, err = toml.Decode(string(data), cfg)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
			}
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(cfg); err == io.EOF {
			err = nil
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q", ext)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	return nil
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvFeedURL); ok && v != "" {
		c.Feed.URL = v
	}
	if v, ok := lookup(EnvRedisAddress); ok && v != "" {
		c.Redis.Addr = v
	}
	if v, ok := lookup(EnvRedisDB); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s must be a number", EnvRedisDB)
		}
		c.Redis.DB = db
	}
	if v, ok := lookup(EnvMongoURI); ok && v != "" {
		c.Mongo.URI = v
	}
	if v, ok := lookup(EnvServerAddr); ok && v != "" {
		c.Server.Addr = v
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints and cross-section requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	if err := errors.ValidateRouteTypes(c.Map.RouteTypes); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case cache.BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "redis cache requires redis.addr")
		}
	case cache.BackendMongo:
		if c.Mongo.URI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "mongo cache requires mongo.uri")
		}
	}
	return nil
}

// CacheOptions converts the cache sections for [cache.Open].
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		},
		Mongo: cache.MongoOptions{
			URI:        c.Mongo.URI,
			Database:   c.Mongo.Database,
			Collection: c.Mongo.Collection,
		},
	}
}

// Keyer returns the cache keyer for the configured namespace, or nil for
// the default keyer when no namespace is set.
func (c Config) Keyer() cache.Keyer {
	if c.Cache.Namespace == "" {
		return nil
	}
	return cache.NewScopedKeyer(nil, c.Cache.Namespace+":")
}
