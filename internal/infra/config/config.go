package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends understood by CacheConfig.Backend.
const (
	CacheBackendMemory      = "memory"
	CacheBackendValkey      = "valkey"
	CacheBackendPostgres    = "postgres"
	CacheBackendObjectStore = "objectstore"
	CacheBackendNone        = "none"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP   HTTPConfig   `yaml:"http"`
	GBIF   GBIFConfig   `yaml:"gbif"`
	Sheets SheetsConfig `yaml:"sheets"`
	Cache  CacheConfig  `yaml:"cache"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// GBIFConfig controls the occurrence and species API client and the phenology defaults.
type GBIFConfig struct {
	BaseURL          string        `yaml:"baseUrl"`
	Timeout          time.Duration `yaml:"timeout"`
	DefaultGeography []string      `yaml:"defaultGeography"`
	DrillRanks       []string      `yaml:"drillRanks"`
	SpeciesFilter    string        `yaml:"speciesFilter"`
	ChartYear        int           `yaml:"chartYear"`
}

// SheetsConfig controls the Google Sheets client.
type SheetsConfig struct {
	BaseURL            string        `yaml:"baseUrl"`
	APIKey             string        `yaml:"apiKey"`
	Timeout            time.Duration `yaml:"timeout"`
	SignupsID          string        `yaml:"signupsId"`
	VernacularID       string        `yaml:"vernacularId"`
	TaxonSRankID       string        `yaml:"taxonSrankId"`
	ConservationStatID string        `yaml:"conservationStatusId"`
}

// CacheConfig selects and configures the histogram store.
type CacheConfig struct {
	Backend     string            `yaml:"backend"`
	Prefix      string            `yaml:"prefix"`
	Valkey      ValkeyConfig      `yaml:"valkey"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Addr string `yaml:"addr"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ObjectStoreConfig points at an S3-compatible bucket.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v, ",")
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("GBIF_BASE_URL"); v != "" {
		cfg.GBIF.BaseURL = v
	}
	if v := os.Getenv("GBIF_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.GBIF.Timeout = parsed
		}
	}
	// Geography filters contain '&', so the list separator is '|'.
	if v := os.Getenv("GBIF_DEFAULT_GEOGRAPHY"); v != "" {
		cfg.GBIF.DefaultGeography = splitList(v, "|")
	}
	if v := os.Getenv("GBIF_DRILL_RANKS"); v != "" {
		cfg.GBIF.DrillRanks = splitList(strings.ToUpper(v), ",")
	}
	if v := os.Getenv("GBIF_SPECIES_FILTER"); v != "" {
		cfg.GBIF.SpeciesFilter = v
	}
	if v := os.Getenv("GBIF_CHART_YEAR"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.GBIF.ChartYear = parsed
		}
	}
	if v := os.Getenv("SHEETS_BASE_URL"); v != "" {
		cfg.Sheets.BaseURL = v
	}
	if v := os.Getenv("SHEETS_API_KEY"); v != "" {
		cfg.Sheets.APIKey = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("CACHE_PREFIX"); v != "" {
		cfg.Cache.Prefix = v
	}
	if v := os.Getenv("CACHE_VALKEY_ADDR"); v != "" {
		cfg.Cache.Valkey.Addr = v
	}
	if v := os.Getenv("CACHE_POSTGRES_DSN"); v != "" {
		cfg.Cache.Postgres.DSN = v
	}
	if v := os.Getenv("CACHE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("CACHE_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("CACHE_OBJECT_ENDPOINT"); v != "" {
		cfg.Cache.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("CACHE_OBJECT_ACCESS_KEY"); v != "" {
		cfg.Cache.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("CACHE_OBJECT_SECRET_KEY"); v != "" {
		cfg.Cache.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("CACHE_OBJECT_BUCKET"); v != "" {
		cfg.Cache.ObjectStore.Bucket = v
	}
	if v := os.Getenv("CACHE_OBJECT_REGION"); v != "" {
		cfg.Cache.ObjectStore.Region = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v, sep string) []string {
	parts := strings.Split(v, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             40,
			},
		},
		GBIF: GBIFConfig{
			BaseURL: "https://api.gbif.org/v1",
			Timeout: 30 * time.Second,
			DefaultGeography: []string{
				"gadmGid=USA.46_1",
				"stateProvince=vermont&stateProvince=vermont (State)",
			},
			DrillRanks: []string{"GENUS", "SPECIES"},
			ChartYear:  2023,
		},
		Sheets: SheetsConfig{
			BaseURL: "https://sheets.googleapis.com/v4",
			Timeout: 15 * time.Second,
		},
		Cache: CacheConfig{
			Backend: CacheBackendMemory,
			Prefix:  "phenology",
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.GBIF.BaseURL) == "" {
		return errors.New("gbif.baseUrl cannot be empty")
	}
	if c.GBIF.Timeout < 0 {
		return errors.New("gbif.timeout cannot be negative")
	}
	if c.GBIF.ChartYear < 0 {
		return errors.New("gbif.chartYear cannot be negative")
	}
	for _, geo := range c.GBIF.DefaultGeography {
		if !strings.Contains(geo, "=") {
			return fmt.Errorf("gbif.defaultGeography entry %q must be a query expression", geo)
		}
	}
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendNone:
	case CacheBackendValkey:
		if strings.TrimSpace(c.Cache.Valkey.Addr) == "" {
			return errors.New("cache.valkey.addr cannot be empty when the valkey backend is selected")
		}
	case CacheBackendPostgres:
		if strings.TrimSpace(c.Cache.Postgres.DSN) == "" {
			return errors.New("cache.postgres.dsn cannot be empty when the postgres backend is selected")
		}
	case CacheBackendObjectStore:
		if strings.TrimSpace(c.Cache.ObjectStore.Endpoint) == "" || strings.TrimSpace(c.Cache.ObjectStore.Bucket) == "" {
			return errors.New("cache.objectStore.endpoint and bucket are required when the objectstore backend is selected")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	return nil
}
