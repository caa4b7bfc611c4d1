package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/eslookup-mcp/internal/cache"
	"github.com/dshills/eslookup-mcp/internal/fields"
	"github.com/dshills/eslookup-mcp/internal/limiter"
	"github.com/dshills/eslookup-mcp/internal/query"
	"github.com/dshills/eslookup-mcp/internal/searcher"
	"github.com/dshills/eslookup-mcp/internal/transport"
)

//go:embed config.toml.sample
var configTemplate string

// Environment variables that override file settings
const (
	EnvConfig   = "ESLOOKUP_CONFIG"
	EnvURL      = "ESLOOKUP_URL"
	EnvIndex    = "ESLOOKUP_INDEX"
	EnvAPIKey   = "ESLOOKUP_API_KEY"
	EnvUsername = "ESLOOKUP_USERNAME"
	EnvPassword = "ESLOOKUP_PASSWORD"
)

// Defaults
const (
	DefaultQuery          = `{"query":{"simple_query_string":{"query":"\"{{entity}}\"","default_operator":"and"}}}`
	DefaultPageSize       = 10
	DefaultMaxSummaryTags = 5
	DefaultMaxConcurrent  = limiter.DefaultMaxConcurrent
	DefaultMinTime        = time.Millisecond
	DefaultQueueDepth     = limiter.DefaultQueueDepth
	DefaultRequestTimeout = transport.DefaultTimeout
)

// Config is the connector configuration file
type Config struct {
	URL   string `toml:"url"`
	Index string `toml:"index"`
	Query string `toml:"query"`

	HighlightEnabled bool   `toml:"highlight_enabled"`
	HighlightQuery   string `toml:"highlight_query"`
	HighlightPreTag  string `toml:"highlight_pre_tag"`
	HighlightPostTag string `toml:"highlight_post_tag"`

	DefaultPageSize int    `toml:"default_page_size"`
	MaxSummaryTags  int    `toml:"max_summary_tags"`
	DetailFields    string `toml:"detail_fields"`
	SummaryFields   string `toml:"summary_fields"`

	MaxConcurrent    int      `toml:"max_concurrent"`
	MinTime          Duration `toml:"min_time"`
	QueueDepth       int      `toml:"queue_depth"`
	SearchPrivateIPs bool     `toml:"search_private_ips"`

	Username string `toml:"username"`
	Password string `toml:"password"`
	APIKey   string `toml:"api_key"`

	RequestTimeout     Duration          `toml:"request_timeout"`
	InsecureSkipVerify bool              `toml:"insecure_skip_verify"`
	ProxyURL           string            `toml:"proxy_url"`
	Headers            map[string]string `toml:"headers,omitempty"`

	Cache CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the lookup result cache
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Size     int      `toml:"size"`
	TTL      Duration `toml:"ttl"`
	Path     string   `toml:"path"`
	RedisURL string   `toml:"redis_url"`
}

// Duration is a time.Duration read from strings such as "30s"
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// ValidationError is a problem with one configuration key
type ValidationError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Query:            DefaultQuery,
		HighlightEnabled: true,
		HighlightQuery:   DefaultQuery,
		HighlightPreTag:  query.DefaultPreTag,
		HighlightPostTag: query.DefaultPostTag,
		DefaultPageSize:  DefaultPageSize,
		MaxSummaryTags:   DefaultMaxSummaryTags,
		MaxConcurrent:    DefaultMaxConcurrent,
		MinTime:          Duration{DefaultMinTime},
		QueueDepth:       DefaultQueueDepth,
		RequestTimeout:   Duration{DefaultRequestTimeout},
		Cache: CacheConfig{
			Backend: cache.BackendMemory,
			Size:    cache.DefaultSize,
			TTL:     Duration{cache.DefaultTTL},
		},
	}
}

// DefaultPath returns the config file location, honouring ESLOOKUP_CONFIG
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config directory: %w", err)
	}
	return filepath.Join(dir, "eslookup", "config.toml"), nil
}

// Load reads configPath over the defaults and applies environment overrides.
// A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{EnvURL, &c.URL},
		{EnvIndex, &c.Index},
		{EnvAPIKey, &c.APIKey},
		{EnvUsername, &c.Username},
		{EnvPassword, &c.Password},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok {
			*o.dst = v
		}
	}
}

// Validate reports every invalid key. An empty result means the config is usable.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(c.URL) == "" {
		errs = append(errs, ValidationError{"url", "You must provide a valid Elasticsearch URL."})
	} else if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{"url", "You must provide a valid Elasticsearch URL."})
	}

	if strings.TrimSpace(c.Index) == "" {
		errs = append(errs, ValidationError{"index", "You must provide the Index you want searched in Elasticsearch"})
	}

	if strings.TrimSpace(c.Query) == "" {
		errs = append(errs, ValidationError{"query", "You must provide a Search Query"})
	} else if !json.Valid([]byte(c.Query)) {
		errs = append(errs, ValidationError{"query",
			"You must provide a valid JSON Search Query.  Ensure the query is valid JSON notation. (Hint: check for missing opening or closing braces, parens and brackets.)"})
	}

	if c.HighlightEnabled && !json.Valid([]byte(c.HighlightQuery)) {
		errs = append(errs, ValidationError{"highlight_query",
			"You must provide a valid JSON Search Query for the Highlight Query.  Ensure the query is valid JSON notation. (Hint: check for missing/extra opening or closing braces, parens and brackets.)"})
	}

	if _, err := fields.Compile(c.DetailFields, true); err != nil {
		errs = append(errs, ValidationError{"detail_fields", err.Error()})
	}
	if _, err := fields.Compile(c.SummaryFields, false); err != nil {
		errs = append(errs, ValidationError{"summary_fields", err.Error()})
	}

	if c.DefaultPageSize <= 0 {
		errs = append(errs, ValidationError{"default_page_size", "Page size must be greater than 0"})
	}
	if c.MaxSummaryTags < 0 {
		errs = append(errs, ValidationError{"max_summary_tags", "Max summary tags cannot be negative"})
	}
	if c.MaxConcurrent <= 0 {
		errs = append(errs, ValidationError{"max_concurrent", "Max concurrent requests must be greater than 0"})
	}
	if c.MinTime.Duration < 0 {
		errs = append(errs, ValidationError{"min_time", "Minimum time between requests cannot be negative"})
	}
	if c.QueueDepth <= 0 {
		errs = append(errs, ValidationError{"queue_depth", "Queue depth must be greater than 0"})
	}

	switch c.Cache.Backend {
	case "", cache.BackendNone, cache.BackendMemory:
	case cache.BackendSQLite:
		if c.Cache.Path == "" {
			errs = append(errs, ValidationError{"cache.path", "A database path is required for the sqlite cache"})
		}
	case cache.BackendRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, ValidationError{"cache.redis_url", "A Redis URL is required for the redis cache"})
		}
	default:
		errs = append(errs, ValidationError{"cache.backend",
			fmt.Sprintf("Unknown cache backend %q (expected none, memory, sqlite or redis)", c.Cache.Backend)})
	}

	return errs
}

// ToOptions converts the configuration into per-call lookup options
func (c *Config) ToOptions() searcher.Options {
	return searcher.Options{
		URL:              c.URL,
		Index:            c.Index,
		Query:            c.Query,
		HighlightEnabled: c.HighlightEnabled,
		HighlightQuery:   c.HighlightQuery,
		HighlightPreTag:  c.HighlightPreTag,
		HighlightPostTag: c.HighlightPostTag,
		DefaultPageSize:  c.DefaultPageSize,
		MaxSummaryTags:   c.MaxSummaryTags,
		DetailFields:     c.DetailFields,
		SummaryFields:    c.SummaryFields,
		SearchPrivateIPs: c.SearchPrivateIPs,
		Headers:          transport.AuthHeaders(c.Username, c.Password, c.APIKey, c.Headers),
		MaxConcurrent:    c.MaxConcurrent,
		MinTime:          c.MinTime.Duration,
		QueueDepth:       c.QueueDepth,
	}
}

// LimiterConfig returns the dispatch limiter settings
func (c *Config) LimiterConfig() limiter.Config {
	return limiter.Config{
		MaxConcurrent: c.MaxConcurrent,
		MinTime:       c.MinTime.Duration,
		QueueDepth:    c.QueueDepth,
	}
}

// HTTPConfig returns the transport settings
func (c *Config) HTTPConfig() transport.HTTPConfig {
	return transport.HTTPConfig{
		Timeout:            c.RequestTimeout.Duration,
		InsecureSkipVerify: c.InsecureSkipVerify,
		ProxyURL:           c.ProxyURL,
	}
}

// Save writes the configuration as TOML
func (c *Config) Save(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0o600)
}

// SaveTemplate writes the commented sample configuration
func SaveTemplate(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0o600)
}
