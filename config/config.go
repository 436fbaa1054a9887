// Package config handles configuration persistence for the codec's debug
// logging and decode strictness.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"eipcodec/cip"
	"eipcodec/logging"

	"gopkg.in/yaml.v3"
)

// Config holds the complete codec configuration.
type Config struct {
	Debug DebugConfig `yaml:"debug"`
	Codec CodecConfig `yaml:"codec"`

	// Data mutex protects all config fields against concurrent access.
	dataMu sync.Mutex `yaml:"-"`
}

// DebugConfig controls the protocol debug log.
type DebugConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Filter  string `yaml:"filter,omitempty"` // comma-separated: eip, cip, serialization
}

// CodecConfig controls decode behaviour.
type CodecConfig struct {
	StrictLength bool `yaml:"strict_length"` // reject reply data longer than the message it carries
}

// DefaultConfig returns a new config with default values.
func DefaultConfig() *Config {
	return &Config{
		Debug: DebugConfig{
			Path: "debug.log",
		},
		Codec: CodecConfig{
			StrictLength: true,
		},
	}
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".eipcodec", "config.yaml")
}

// Load reads the configuration from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	c.dataMu.Lock()
	data, err := yaml.Marshal(c)
	c.dataMu.Unlock() // Release lock after marshal, before I/O

	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()

	if c.Debug.Enabled && c.Debug.Path == "" {
		return fmt.Errorf("debug logging enabled without a path")
	}
	for _, p := range strings.Split(c.Debug.Filter, ",") {
		p = strings.TrimSpace(strings.ToLower(p))
		switch p {
		case "", logging.ProtoEIP, logging.ProtoCIP, logging.ProtoSerialization:
		default:
			return fmt.Errorf("unknown debug filter protocol %q", p)
		}
	}
	return nil
}

// DecodeOptions returns the decode options for cip.DecodeForwardOpenReply.
func (c *Config) DecodeOptions() cip.DecodeOptions {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	return cip.DecodeOptions{StrictLength: c.Codec.StrictLength}
}

// StartDebugLogging opens the debug log and installs it as the global logger.
// It returns nil when debug logging is disabled. The caller closes the logger.
func (c *Config) StartDebugLogging() (*logging.DebugLogger, error) {
	c.dataMu.Lock()
	dbg := c.Debug
	c.dataMu.Unlock()

	if !dbg.Enabled {
		return nil, nil
	}

	logger, err := logging.NewDebugLogger(dbg.Path)
	if err != nil {
		return nil, err
	}
	logger.SetFilter(dbg.Filter)
	logging.SetGlobalDebugLogger(logger)
	return logger, nil
}
