package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL     = "https://codelabs.cs.pdx.edu/cs475/"
	DefaultCacheDir    = "~/.cache/gensec-template"
	DefaultCacheTTL    = 24 * time.Hour
	DefaultOutputDir   = "./output"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultConcurrency = 4
	DefaultFormat      = "docx"
	DefaultMode        = "bold"
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"

	// EnvBaseURL overrides the course page URL
	EnvBaseURL = "LAB_TEMPLATE_URL"
	// EnvCacheDir overrides the cache directory
	EnvCacheDir = "LAB_TEMPLATE_CACHE_DIR"
)

// Source names where the effective base URL came from
type Source string

const (
	SourceDefault     Source = "default"
	SourceConfigFile  Source = "config_file"
	SourceEnvironment Source = "environment"
	SourceFlag        Source = "flag"
)

// Config holds the tool settings. Durations are Go duration strings such as "24h".
type Config struct {
	BaseURL     string `yaml:"base_url"`
	CacheDir    string `yaml:"cache_dir,omitempty"`
	CacheTTL    string `yaml:"cache_ttl,omitempty"`
	OutputDir   string `yaml:"output_dir,omitempty"`
	Timeout     string `yaml:"timeout,omitempty"`
	MaxRetries  int    `yaml:"max_retries,omitempty"`
	RetryDelay  string `yaml:"retry_delay,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty"`
	Format      string `yaml:"format,omitempty"`
	// Mode is the question extraction mode: bold or heuristic
	Mode string `yaml:"mode,omitempty"`
	// LogLevel is debug, info, warn or error. --verbose forces debug.
	LogLevel string `yaml:"log_level,omitempty"`
	// LogFormat is text for console output or json
	LogFormat string `yaml:"log_format,omitempty"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		CacheDir:    DefaultCacheDir,
		CacheTTL:    DefaultCacheTTL.String(),
		OutputDir:   DefaultOutputDir,
		Timeout:     DefaultTimeout.String(),
		MaxRetries:  DefaultMaxRetries,
		RetryDelay:  DefaultRetryDelay.String(),
		Concurrency: DefaultConcurrency,
		Format:      DefaultFormat,
		Mode:        DefaultMode,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
	}
}

// DefaultPath returns ~/.config/gensec-template/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "gensec-template", "config.yaml")
	}
	return filepath.Join(home, ".config", "gensec-template", "config.yaml")
}

// LoadFile reads a config file over the defaults. Settings missing from the
// file keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory if needed
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// CacheTTLDuration returns the cache TTL, or the default if unset or invalid
func (c *Config) CacheTTLDuration() time.Duration {
	return parseDuration(c.CacheTTL, DefaultCacheTTL)
}

// TimeoutDuration returns the HTTP timeout, or the default if unset or invalid
func (c *Config) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, DefaultTimeout)
}

// RetryDelayDuration returns the first retry delay, or the default if unset or invalid
func (c *Config) RetryDelayDuration() time.Duration {
	return parseDuration(c.RetryDelay, DefaultRetryDelay)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Resolved is the effective configuration and where its base URL came from
type Resolved struct {
	*Config

	Path       string
	FileExists bool
	URLSource  Source
	// Warning is set when the config file exists but could not be used
	Warning error
}

// Resolve merges defaults, the config file at path, the environment and flagURL.
// An empty flagURL means the flag was not given.
func Resolve(path, flagURL string) *Resolved {
	r := &Resolved{
		Config:    Default(),
		Path:      path,
		URLSource: SourceDefault,
	}

	if _, err := os.Stat(path); err == nil {
		r.FileExists = true
		cfg, err := LoadFile(path)
		if err != nil {
			r.Warning = err
		} else {
			r.Config = cfg
			r.URLSource = SourceConfigFile
		}
	}

	if url := os.Getenv(EnvBaseURL); url != "" {
		r.BaseURL = url
		r.URLSource = SourceEnvironment
	}
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		r.CacheDir = dir
	}

	if flagURL != "" {
		r.BaseURL = flagURL
		r.URLSource = SourceFlag
	}

	return r
}

// Description reports where configuration is read from
type Description struct {
	ConfigFile       string `json:"config_file"`
	ConfigFileExists bool   `json:"config_file_exists"`
	EnvVar           string `json:"env_var"`
	EnvVarSet        bool   `json:"env_var_set"`
	DefaultURL       string `json:"default_url"`
	EffectiveURL     string `json:"effective_url"`
	EffectiveSource  Source `json:"effective_source"`
	Warning          string `json:"warning,omitempty"`
}

// Describe reports the configuration sources in effect without any flags
func Describe(path string) Description {
	r := Resolve(path, "")

	d := Description{
		ConfigFile:       path,
		ConfigFileExists: r.FileExists,
		EnvVar:           EnvBaseURL,
		EnvVarSet:        os.Getenv(EnvBaseURL) != "",
		DefaultURL:       DefaultBaseURL,
		EffectiveURL:     r.BaseURL,
		EffectiveSource:  r.URLSource,
	}
	if r.Warning != nil {
		d.Warning = r.Warning.Error()
	}
	return d
}

// SetURL stores url as the base URL in the config file at path, keeping its other settings
func SetURL(path, url string) error {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("reading config: %w", err)
	}

	cfg.BaseURL = url
	return Save(path, cfg)
}
