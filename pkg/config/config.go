// Package config loads user settings and environment files.
//
// User settings come from ~/.config/uenv/config.yaml, with UENV_* variables
// taking precedence (UENV_NIX_CACHE_URL overrides nix.cache_url). An
// environment file, uenv.yaml or uenv.cue, declares one environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/arc-language/uenv/pkg/index"
	"github.com/arc-language/uenv/pkg/nix"
)

const (
	// AppName is the application name
	AppName = "uenv"

	// EnvPrefix prefixes environment variable overrides
	EnvPrefix = "UENV"
)

// ErrInvalidConfig indicates a malformed config or environment file
var ErrInvalidConfig = errors.New("invalid configuration")

// NixConfig holds settings for the nix adapter
type NixConfig struct {
	CacheURL string `mapstructure:"cache_url" yaml:"cache_url"`
	System   string `mapstructure:"system" yaml:"system,omitempty"` // empty = detect
}

// IndexConfig holds settings for index sync
type IndexConfig struct {
	RepoURL string `mapstructure:"repo_url" yaml:"repo_url"`
	Branch  string `mapstructure:"branch" yaml:"branch"`
}

// Config holds uenv configuration
type Config struct {
	IndexPath string      `mapstructure:"index_path" yaml:"index_path,omitempty"` // base index file or registry dir; empty = CachePath
	CachePath string      `mapstructure:"cache_path" yaml:"cache_path"`           // synced index repository
	StorePath string      `mapstructure:"store_path" yaml:"store_path"`           // saved environments
	Debug     bool        `mapstructure:"debug" yaml:"debug"`
	Nix       NixConfig   `mapstructure:"nix" yaml:"nix"`
	Index     IndexConfig `mapstructure:"index" yaml:"index"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	home := homeDir()
	return &Config{
		CachePath: filepath.Join(home, ".uenv", "cache"),
		StorePath: filepath.Join(home, ".uenv", "envs"),
		Nix: NixConfig{
			CacheURL: nix.DefaultCacheURL,
		},
		Index: IndexConfig{
			RepoURL: index.DefaultRepoURL,
			Branch:  index.DefaultRepoBranch,
		},
	}
}

// BaseIndexPath returns where the base index is read from
func (c *Config) BaseIndexPath() string {
	if c.IndexPath != "" {
		return c.IndexPath
	}
	return c.CachePath
}

// DefaultConfigPath returns ~/.config/uenv/config.yaml, honouring XDG_CONFIG_HOME
func DefaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(homeDir(), ".config")
	}
	return filepath.Join(dir, AppName, "config.yaml")
}

// Load loads configuration from path. An empty path reads the default
// location, where a missing file is not an error; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("index_path", defaults.IndexPath)
	v.SetDefault("cache_path", defaults.CachePath)
	v.SetDefault("store_path", defaults.StorePath)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("nix.cache_url", defaults.Nix.CacheURL)
	v.SetDefault("nix.system", defaults.Nix.System)
	v.SetDefault("index.repo_url", defaults.Index.RepoURL)
	v.SetDefault("index.branch", defaults.Index.Branch)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidConfig, path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Nix.System != "" {
		if _, err := nix.ParsePlatform(cfg.Nix.System); err != nil {
			return nil, fmt.Errorf("%w: nix.system: %v", ErrInvalidConfig, err)
		}
	}

	return &cfg, nil
}

// Save saves configuration to file
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}
