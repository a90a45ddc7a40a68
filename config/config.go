// Package config loads fingerprint settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/ai/cache"
	"github.com/poiesic/fingerprint/match"
	"github.com/poiesic/fingerprint/recommend"
)

// Environment variables that override file settings.
const (
	EnvDataPath      = "DATA_PATH"
	EnvTopicPreview  = "TOP_N_TOPIC_PREVIEW"
	EnvEmbeddingHost = "FINGERPRINT_EMBEDDING_HOST"
	EnvProvider      = "FINGERPRINT_PROVIDER"
	EnvToken         = "FINGERPRINT_TOKEN"
	EnvCachePath     = "FINGERPRINT_CACHE_PATH"
	EnvSimilarity    = "FINGERPRINT_MATCH_SIMILARITY"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config stores fingerprint configuration loaded from
// ~/.config/fingerprint/config.yaml.
type Config struct {
	DataPath     string          `yaml:"data_path"`
	TopicPreview int             `yaml:"topic_preview"`
	DefaultModel string          `yaml:"default_model"`
	Embedding    EmbeddingConfig `yaml:"embedding"`
	Matching     MatchingConfig  `yaml:"matching"`
	Cache        CacheConfig     `yaml:"cache"`
	Server       ServerConfig    `yaml:"server"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider      string        `yaml:"provider"`
	Host          string        `yaml:"host"`
	Token         string        `yaml:"token"`
	BatchSize     int           `yaml:"batch_size"`
	Concurrency   int           `yaml:"concurrency"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
}

// MatchingConfig tunes approximate topic resolution. Similarity is "ratio"
// or "jaro-winkler"; Cutoff is the minimum score, in [0, 1], for an
// approximate match to be accepted.
type MatchingConfig struct {
	Similarity string  `yaml:"similarity"`
	Cutoff     float64 `yaml:"cutoff"`
}

// CacheConfig controls embedding caches. An empty Path disables the
// persistent cache.
type CacheConfig struct {
	Path    string `yaml:"path"`
	LRUSize int    `yaml:"lru_size"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		DataPath:     filepath.Join("data", "processed_data.csv"),
		TopicPreview: recommend.DefaultTopicPreview,
		DefaultModel: ai.DefaultModel,
		Embedding: EmbeddingConfig{
			Provider:      aiDefaults.Provider,
			Host:          aiDefaults.EmbeddingHost,
			BatchSize:     aiDefaults.BatchSize,
			Concurrency:   aiDefaults.Concurrency,
			RetryAttempts: 3,
			RetryDelay:    500 * time.Millisecond,
		},
		Matching: MatchingConfig{
			Similarity: "ratio",
			Cutoff:     match.DefaultCutoff,
		},
		Cache: CacheConfig{
			LRUSize: cache.DefaultLRUSize,
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
	}
}

// GetConfigPath returns the default config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "fingerprint", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// Load reads the config at path, or at GetConfigPath when path is empty,
// applies environment overrides and validates the result. A missing file at
// the default location yields the defaults; a missing explicit file is an
// error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvDataPath); v != "" {
		c.DataPath = v
	}
	if v := os.Getenv(EnvTopicPreview); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvTopicPreview, v)
		}
		c.TopicPreview = n
	}
	if v := os.Getenv(EnvEmbeddingHost); v != "" {
		c.Embedding.Host = v
	}
	if v := os.Getenv(EnvProvider); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Embedding.Token = v
	}
	if v := os.Getenv(EnvCachePath); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv(EnvSimilarity); v != "" {
		c.Matching.Similarity = v
	}
	return nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.DataPath, err = ExpandPath(c.DataPath); err != nil {
		return err
	}
	if c.Cache.Path, err = ExpandPath(c.Cache.Path); err != nil {
		return err
	}
	return nil
}

// Validate checks the settings that are not validated by the packages
// consuming them.
func (c *Config) Validate() error {
	var errs []error
	if c.TopicPreview < 0 {
		errs = append(errs, fmt.Errorf("topic_preview must not be negative, got %d", c.TopicPreview))
	}
	if _, err := ai.ResolveModel(c.DefaultModel); err != nil {
		errs = append(errs, err)
	}
	if c.Embedding.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("embedding.retry_attempts must be at least 1, got %d", c.Embedding.RetryAttempts))
	}
	if _, ok := match.SimilarityByName(c.Matching.Similarity); !ok {
		errs = append(errs, fmt.Errorf("matching.similarity must be ratio or jaro-winkler, got %q", c.Matching.Similarity))
	}
	if c.Matching.Cutoff < 0 || c.Matching.Cutoff > 1 {
		errs = append(errs, fmt.Errorf("matching.cutoff must be between 0 and 1, got %g", c.Matching.Cutoff))
	}
	if c.Cache.LRUSize < 0 {
		errs = append(errs, fmt.Errorf("cache.lru_size must not be negative, got %d", c.Cache.LRUSize))
	}
	if err := c.AIConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// AIConfig returns the embedding provider configuration.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(c.Embedding.Provider),
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithToken(c.Embedding.Token),
		ai.WithBatchSize(c.Embedding.BatchSize),
		ai.WithConcurrency(c.Embedding.Concurrency),
	)
}

// MatcherOptions returns the topic matcher options selected by the matching
// section. Call Validate first; an unknown similarity falls back to ratio.
func (c *Config) MatcherOptions() []match.Option {
	fn, _ := match.SimilarityByName(c.Matching.Similarity)
	return []match.Option{
		match.WithSimilarity(fn),
		match.WithCutoff(c.Matching.Cutoff),
	}
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
