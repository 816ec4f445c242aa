// Package config loads service configuration from config/app.yaml, an
// optional .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds HTTP server settings.
type AppConfig struct {
	Port           string        `mapstructure:"port"`
	Env            string        `mapstructure:"env"`
	Version        string        `mapstructure:"version"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DatasetConfig selects where the POI dataset is read from.
type DatasetConfig struct {
	Source string `mapstructure:"source"` // embedded, file or mongo
	Path   string `mapstructure:"path"`
}

// CacheConfig selects the answer cache backend.
type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // none, memory, redis, mongo or hybrid
	TTL     time.Duration `mapstructure:"ttl"`
	L1Size  int           `mapstructure:"l1_size"`
	WarmUp  int           `mapstructure:"warm_up"`
}

// RedisConfig holds the Redis connection.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// MongoConfig holds the MongoDB connection.
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// MeilisearchConfig holds the search mirror connection.
type MeilisearchConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	URL       string        `mapstructure:"url"`
	MasterKey string        `mapstructure:"master_key"`
	Index     string        `mapstructure:"index"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CORSConfig lists allowed browser origins.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Config is the full service configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Dataset     DatasetConfig     `mapstructure:"dataset"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Meilisearch MeilisearchConfig `mapstructure:"meilisearch"`
	CORS        CORSConfig        `mapstructure:"cors"`
}

var (
	validSources  = []string{"embedded", "file", "mongo"}
	validBackends = []string{"none", "memory", "redis", "mongo", "hybrid"}
)

// Load reads configuration. paths are searched in order for app.yaml; a
// missing file is not an error. Environment variables override the file,
// with dots replaced by underscores (CACHE_BACKEND sets cache.backend).
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORS.AllowOrigins = splitOrigins(cfg.CORS.AllowOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.request_timeout", "3s")

	v.SetDefault("dataset.source", "embedded")
	v.SetDefault("dataset.path", "")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.l1_size", 10000)
	v.SetDefault("cache.warm_up", 1000)

	v.SetDefault("redis.url", "redis://localhost:6379/0")

	v.SetDefault("mongo.url", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "place_resolver")

	v.SetDefault("meilisearch.enabled", false)
	v.SetDefault("meilisearch.url", "http://localhost:7700")
	v.SetDefault("meilisearch.master_key", "")
	v.SetDefault("meilisearch.index", "pois")
	v.SetDefault("meilisearch.timeout", "2s")

	v.SetDefault("cors.allow_origins", []string{"*"})
}

// splitOrigins accepts both a YAML list and a comma separated env value.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

// Validate rejects unknown enum values and unusable settings.
func (c *Config) Validate() error {
	if !contains(validSources, c.Dataset.Source) {
		return fmt.Errorf("dataset.source %q is not one of %v", c.Dataset.Source, validSources)
	}
	if c.Dataset.Source == "file" && c.Dataset.Path == "" {
		return errors.New("dataset.path is required when dataset.source is file")
	}
	if !contains(validBackends, c.Cache.Backend) {
		return fmt.Errorf("cache.backend %q is not one of %v", c.Cache.Backend, validBackends)
	}
	if c.App.RequestTimeout <= 0 {
		return errors.New("app.request_timeout must be positive")
	}
	if c.Cache.L1Size <= 0 {
		return errors.New("cache.l1_size must be positive")
	}
	return nil
}

// NeedsMongo reports whether any configured component uses MongoDB.
func (c *Config) NeedsMongo() bool {
	return c.Dataset.Source == "mongo" || c.Cache.Backend == "mongo" || c.Cache.Backend == "hybrid"
}

// NeedsRedis reports whether the cache backend uses Redis.
func (c *Config) NeedsRedis() bool {
	return c.Cache.Backend == "redis" || c.Cache.Backend == "hybrid"
}

// IsProduction reports whether app.env is production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
