// Package config loads listlens settings.
//
// Sources, lowest to highest priority: built-in defaults, the YAML file
// (--config, or listlens.yaml in the working directory when present), then
// environment variables. Command flags are applied by the caller on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/listlens/listlens/internal/analysis"
	"github.com/listlens/listlens/internal/encoder"
	"github.com/listlens/listlens/internal/kv"
	"github.com/listlens/listlens/internal/review"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given and the file exists.
const DefaultPath = "listlens.yaml"

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type EncoderConfig struct {
	encoder.Options  `yaml:",inline"`
	ThumbnailWidth   int `yaml:"thumbnail_width"`
	ThumbnailQuality int `yaml:"thumbnail_quality"`
}

type StoreConfig struct {
	// Backend is one of memory, sqlite or s3.
	Backend    string      `yaml:"backend"`
	SQLitePath string      `yaml:"sqlite_path"`
	S3         kv.S3Config `yaml:"s3"`
}

type ReviewConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	AutoCheckEdits int           `yaml:"auto_check_edits"`
}

type GateConfig struct {
	// JWTSecret enables bearer tokens and quotas when set.
	JWTSecret  string `yaml:"jwt_secret"`
	DailyQuota int    `yaml:"daily_quota"`
}

type ServerConfig struct {
	Port           string `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type Config struct {
	Provider  string                     `yaml:"provider"`
	Model     string                     `yaml:"model"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
	Encoder   EncoderConfig              `yaml:"encoder"`
	Store     StoreConfig                `yaml:"store"`
	Review    ReviewConfig               `yaml:"review"`
	Gate      GateConfig                 `yaml:"gate"`
	Server    ServerConfig               `yaml:"server"`
}

func Default() *Config {
	return &Config{
		Provider:  analysis.DefaultProvider,
		Providers: make(map[string]*ProviderConfig),
		Encoder: EncoderConfig{
			Options:          encoder.DefaultOptions(),
			ThumbnailWidth:   encoder.DefaultThumbnailWidth,
			ThumbnailQuality: encoder.DefaultThumbnailQuality,
		},
		Store: StoreConfig{
			Backend:    BackendMemory,
			SQLitePath: "listlens.db",
		},
		Review: ReviewConfig{
			Timeout:        review.DefaultTimeout,
			AutoCheckEdits: review.DefaultAutoCheckEdits,
		},
		Server: ServerConfig{
			Port:           "8888",
			MaxUploadBytes: 10 << 20,
		},
	}
}

// Load reads path (or DefaultPath if it exists) and applies environment
// overrides from the process environment.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}
	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&cfg.Provider, "LISTLENS_PROVIDER")
	set(&cfg.Model, "LISTLENS_MODEL")

	set(&cfg.provider("anthropic").APIKey, "ANTHROPIC_API_KEY")
	set(&cfg.provider("openai").APIKey, "OPENAI_API_KEY")
	set(&cfg.provider("openai").BaseURL, "OPENAI_BASE_URL")
	set(&cfg.provider("openai").Model, "OPENAI_MODEL")
	set(&cfg.provider("gemini").APIKey, "GEMINI_API_KEY")
	set(&cfg.provider("ollama").BaseURL, "OLLAMA_URL", "OLLAMA_HOST")
	set(&cfg.provider("ollama").Model, "OLLAMA_MODEL")

	set(&cfg.Store.Backend, "LISTLENS_STORE")
	set(&cfg.Store.SQLitePath, "LISTLENS_SQLITE_PATH")
	set(&cfg.Store.S3.Bucket, "LISTLENS_S3_BUCKET")
	set(&cfg.Store.S3.Region, "LISTLENS_S3_REGION", "AWS_REGION")
	set(&cfg.Store.S3.Endpoint, "LISTLENS_S3_ENDPOINT")
	set(&cfg.Store.S3.AccessKey, "LISTLENS_S3_ACCESS_KEY")
	set(&cfg.Store.S3.SecretKey, "LISTLENS_S3_SECRET_KEY")
	set(&cfg.Store.S3.Prefix, "LISTLENS_S3_PREFIX")

	set(&cfg.Gate.JWTSecret, "LISTLENS_JWT_SECRET")
	if v := getenv("LISTLENS_DAILY_QUOTA"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LISTLENS_DAILY_QUOTA %q: %w", v, err)
		}
		cfg.Gate.DailyQuota = n
	}
	set(&cfg.Server.Port, "LISTLENS_PORT")

	// Drop providers that only exist because of an unset lookup above.
	for name, pc := range cfg.Providers {
		if *pc == (ProviderConfig{}) {
			delete(cfg.Providers, name)
		}
	}
	return nil
}

func (c *Config) provider(name string) *ProviderConfig {
	if c.Providers[name] == nil {
		c.Providers[name] = &ProviderConfig{}
	}
	return c.Providers[name]
}

// ProviderConfig returns the settings of the named provider, or an empty
// config.
func (c *Config) ProviderConfig(name string) ProviderConfig {
	if pc, ok := c.Providers[name]; ok && pc != nil {
		return *pc
	}
	return ProviderConfig{}
}

// ActiveModel is the model for the selected provider: the top-level model,
// then the provider's own, then the provider default.
func (c *Config) ActiveModel() string {
	if c.Model != "" {
		return c.Model
	}
	if m := c.ProviderConfig(c.Provider).Model; m != "" {
		return m
	}
	return analysis.DefaultModel(c.Provider)
}

func (c *Config) Validate() error {
	if analysis.DefaultModel(c.Provider) == "" {
		return fmt.Errorf("unsupported provider %q (want one of %s)", c.Provider, strings.Join(analysis.Providers(), ", "))
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite backend")
		}
	case BackendS3:
		if c.Store.S3.Bucket == "" {
			return errors.New("store.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Encoder.FallbackLongestEdge > c.Encoder.MaxLongestEdge {
		return fmt.Errorf("encoder.fallback_longest_edge (%d) must not exceed encoder.max_longest_edge (%d)",
			c.Encoder.FallbackLongestEdge, c.Encoder.MaxLongestEdge)
	}
	if c.Review.Timeout <= 0 {
		return fmt.Errorf("review.timeout must be positive, got %s", c.Review.Timeout)
	}
	if c.Gate.DailyQuota < 0 {
		return fmt.Errorf("gate.daily_quota must not be negative, got %d", c.Gate.DailyQuota)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	return nil
}
