// Package config loads the system configuration from YAML with defaults
// applied first, so a partial file only overrides what it names.
package config

import (
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/semgraph/errors"
)

// GraphConfig covers namespaces and graph behavior.
type GraphConfig struct {
	// DefaultNamespace is the prefix used for declarations when callers
	// pass no namespace. Empty means the built-in ontology namespace.
	DefaultNamespace string `yaml:"default_namespace"`

	// Namespaces adds prefix -> base IRI bindings at startup.
	Namespaces map[string]string `yaml:"namespaces"`
}

// InstanceConfig covers the instance manager.
type InstanceConfig struct {
	// Mode is "lenient" (unknown properties declared on the fly) or
	// "strict" (unknown properties rejected).
	Mode string `yaml:"mode"`
}

// ProxyConfig covers the proxy layer.
type ProxyConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// NATSConfig covers the optional NATS-backed action resolver and snapshot
// store. An empty URL disables both.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	SubjectPrefix  string        `yaml:"subject_prefix"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	SnapshotBucket string        `yaml:"snapshot_bucket"`
}

// LoggingConfig covers slog setup.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the full system configuration.
type Config struct {
	Graph    GraphConfig    `yaml:"graph"`
	Instance InstanceConfig `yaml:"instance"`
	Proxy    ProxyConfig    `yaml:"proxy"`
	NATS     NATSConfig     `yaml:"nats"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Default returns the configuration used when no file overrides anything.
func Default() Config {
	return Config{
		Instance: InstanceConfig{Mode: "lenient"},
		Proxy:    ProxyConfig{CacheSize: 128},
		NATS: NATSConfig{
			SubjectPrefix:  "semgraph.actions",
			RequestTimeout: 5 * time.Second,
			SnapshotBucket: "semgraph-snapshots",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "Config", "Load", "reading "+path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WrapInvalid(err, "Config", "Load", "parsing "+path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks invariants the rest of the system assumes.
func (c *Config) Validate() error {
	switch c.Instance.Mode {
	case "lenient", "strict":
	default:
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"instance mode must be lenient or strict, got "+c.Instance.Mode)
	}
	if c.Proxy.CacheSize <= 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"proxy cache size must be positive")
	}
	if c.NATS.URL != "" && c.NATS.RequestTimeout <= 0 {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"nats request timeout must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapFatal(errors.ErrInvalidConfig, "Config", "Validate",
			"log level must be one of debug, info, warn, error")
	}
	return nil
}

// SlogLevel maps the configured level string to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
