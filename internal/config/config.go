package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnv names an optional YAML file layered between defaults and the environment.
const ConfigPathEnv = "CONFIG_PATH"

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config captures all runtime configuration. Keys match the lower-cased
// environment variable names.
type Config struct {
	Port             string `koanf:"port"`
	ReadTimeoutSecs  int    `koanf:"server_read_timeout"`
	WriteTimeoutSecs int    `koanf:"server_write_timeout"`
	IdleTimeoutSecs  int    `koanf:"server_idle_timeout"`

	DataSource string `koanf:"data_source"`
	DataPath   string `koanf:"data_path"`

	DBURL             string `koanf:"db_url"`
	DBMaxConns        int    `koanf:"db_max_conns"`
	DBMinConns        int    `koanf:"db_min_conns"`
	DBMaxIdleSecs     int    `koanf:"db_max_conn_idle_secs"`
	DBMaxLifeSecs     int    `koanf:"db_max_conn_lifetime_secs"`
	DBConnTimeoutSecs int    `koanf:"db_conn_timeout_secs"`
	DBStatementCache  int    `koanf:"db_statement_cache_capacity"`

	CatalogURL              string `koanf:"catalog_url"`
	CatalogAPIKey           string `koanf:"catalog_api_key"`
	CatalogHost             string `koanf:"catalog_host"`
	CatalogTimeoutSecs      int    `koanf:"catalog_timeout_secs"`
	CatalogFailureThreshold int    `koanf:"catalog_failure_threshold"`
	CatalogCooldownSecs     int    `koanf:"catalog_cooldown_secs"`

	RateLimitRequests   int    `koanf:"rate_limit_requests"`
	RateLimitWindowSecs int    `koanf:"rate_limit_window_secs"`
	CORSOrigins         string `koanf:"cors_origins"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	RecommendNeighbors    int `koanf:"recommend_neighbors"`
	RecommendDefaultLimit int `koanf:"recommend_default_limit"`
	RecommendMaxLimit     int `koanf:"recommend_max_limit"`
}

func defaults() Config {
	return Config{
		Port:                    "8080",
		ReadTimeoutSecs:         15,
		WriteTimeoutSecs:        15,
		IdleTimeoutSecs:         60,
		DataSource:              SourceCSV,
		DBMaxConns:              10,
		DBMinConns:              1,
		DBMaxIdleSecs:           300,
		DBMaxLifeSecs:           3600,
		DBConnTimeoutSecs:       10,
		DBStatementCache:        256,
		CatalogHost:             "streaming-availability.p.rapidapi.com",
		CatalogTimeoutSecs:      5,
		CatalogFailureThreshold: 5,
		CatalogCooldownSecs:     30,
		RateLimitRequests:       100,
		RateLimitWindowSecs:     60,
		CORSOrigins:             "*",
		LogLevel:                "info",
		LogFormat:               "json",
		RecommendNeighbors:      10,
		RecommendDefaultLimit:   10,
		RecommendMaxLimit:       100,
	}
}

// Load layers defaults, the optional CONFIG_PATH YAML file and environment
// variables, then validates the result.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	known := make(map[string]struct{})
	for _, key := range k.Keys() {
		known[key] = struct{}{}
	}
	// Unknown variables map to "" and are dropped.
	envProvider := env.Provider("", ".", func(key string) string {
		key = strings.ToLower(key)
		if _, ok := known[key]; ok {
			return key
		}
		return ""
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings and numeric bounds.
func (cfg Config) Validate() error {
	switch cfg.DataSource {
	case SourceCSV:
		if cfg.DataPath == "" {
			return fmt.Errorf("DATA_PATH is required when DATA_SOURCE=csv")
		}
	case SourcePostgres:
		if cfg.DBURL == "" {
			return fmt.Errorf("DB_URL is required when DATA_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be %q or %q, got %q", SourceCSV, SourcePostgres, cfg.DataSource)
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.CatalogTimeoutSecs <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT_SECS must be positive")
	}
	if cfg.CatalogFailureThreshold <= 0 {
		return fmt.Errorf("CATALOG_FAILURE_THRESHOLD must be positive")
	}
	if cfg.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be non-negative")
	}
	if cfg.RateLimitWindowSecs <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECS must be positive")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	if cfg.RecommendNeighbors <= 0 {
		return fmt.Errorf("RECOMMEND_NEIGHBORS must be positive")
	}
	if cfg.RecommendDefaultLimit <= 0 {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be positive")
	}
	if cfg.RecommendMaxLimit < cfg.RecommendDefaultLimit {
		return fmt.Errorf("RECOMMEND_MAX_LIMIT cannot be below RECOMMEND_DEFAULT_LIMIT")
	}
	return nil
}

// CatalogEnabled reports whether a catalog endpoint is configured.
func (cfg Config) CatalogEnabled() bool {
	return cfg.CatalogURL != ""
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (cfg Config) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(cfg.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
