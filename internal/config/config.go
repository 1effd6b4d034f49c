// Package config loads the rhsm-facts YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used when the config file leaves a value unset.
const (
	DefaultStateDir  = "/var/lib/rhsm-facts"
	DefaultCacheName = "facts.json"
	DefaultFreshness = 4 * time.Hour
)

// Duration wraps time.Duration with YAML unmarshalling for human-readable strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed <= 0 {
		return fmt.Errorf("invalid duration %q: must be positive", s)
	}
	*d = Duration(parsed)
	return nil
}

// FactsConfig holds collection and cache settings.
type FactsConfig struct {
	CacheFile      string   `yaml:"cache_file"`
	CacheFormat    string   `yaml:"cache_format"`
	Freshness      Duration `yaml:"freshness"`
	DisabledProbes []string `yaml:"disabled_probes"`
}

// DaemonConfig holds D-Bus service settings.
type DaemonConfig struct {
	BusAddress string `yaml:"bus_address"`
	SessionBus bool   `yaml:"session_bus"`
}

// Config is the top-level configuration file structure.
type Config struct {
	StateDir  string       `yaml:"state_dir"`
	Prefix    string       `yaml:"prefix"`
	LogLevel  string       `yaml:"log_level"`
	LogFormat string       `yaml:"log_format"`
	Facts     FactsConfig  `yaml:"facts"`
	Daemon    DaemonConfig `yaml:"daemon"`
}

// CacheFile returns the configured cache path, or facts.json under the
// state directory.
func (c *Config) CacheFile() string {
	if c.Facts.CacheFile != "" {
		return c.Facts.CacheFile
	}
	stateDir := c.StateDir
	if stateDir == "" {
		stateDir = DefaultStateDir
	}
	return filepath.Join(stateDir, DefaultCacheName)
}

// Freshness returns how long a cached snapshot stays valid.
func (c *Config) Freshness() time.Duration {
	if c.Facts.Freshness > 0 {
		return time.Duration(c.Facts.Freshness)
	}
	return DefaultFreshness
}

// Validate rejects values no component can act on.
func (c *Config) Validate() error {
	if c.LogFormat != "" && !slices.Contains([]string{"text", "json"}, c.LogFormat) {
		return fmt.Errorf("log_format %q: want text or json", c.LogFormat)
	}
	if c.LogLevel != "" && !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return fmt.Errorf("log_level %q: want debug, info, warn or error", c.LogLevel)
	}
	if c.Facts.CacheFormat != "" && !slices.Contains([]string{"json", "cbor"}, c.Facts.CacheFormat) {
		return fmt.Errorf("facts.cache_format %q: want json or cbor", c.Facts.CacheFormat)
	}
	if c.Daemon.BusAddress != "" && c.Daemon.SessionBus {
		return fmt.Errorf("daemon.bus_address and daemon.session_bus are mutually exclusive")
	}
	return nil
}

// DefaultPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "rhsm-facts", "config.yaml")
}

// Load reads and parses a YAML config file. If the file does not exist,
// it returns an empty Config and a nil error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve loads the config a command should use. An explicit path that
// doesn't exist is an error; a missing default file yields an empty config.
func Resolve(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return nil, fmt.Errorf("config file not found: %s", explicitPath)
		}
		cfg, err := Load(explicitPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", explicitPath, err)
		}
		return cfg, nil
	}

	defaultPath := DefaultPath()
	if defaultPath == "" {
		return &Config{}, nil
	}
	cfg, err := Load(defaultPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", defaultPath, err)
	}
	return cfg, nil
}
