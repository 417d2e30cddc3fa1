// Package config loads mcphealth settings from file and environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	configDirName  = "mcphealth"

	maxTimeout      = 10 * time.Minute
	minMaxBodyBytes = 1024
	maxMaxBodyBytes = 16 * 1024 * 1024
)

// duration wraps time.Duration for YAML unmarshaling.
type duration struct {
	d time.Duration
}

func (d *duration) unmarshalText(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.d = parsed
	return nil
}

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	return d.unmarshalText(value.Value)
}

func (d *duration) Duration() time.Duration {
	return d.d
}

// Config for mcphealth. Pointer fields; nil = unset.
type Config struct {
	ListenAddr     *string   `yaml:"listen_addr"`
	AttemptTimeout *duration `yaml:"attempt_timeout"`
	RequestTimeout *duration `yaml:"request_timeout"`
	MaxBodyBytes   *int64    `yaml:"max_body_bytes"`
	ClientVersion  *string   `yaml:"client_version"`
}

// LoadFrom loads config from path. Missing files return zero Config, nil.
func LoadFrom(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads $XDG_CONFIG_HOME/mcphealth/config.yaml.
func Load() (Config, error) {
	return LoadFrom(DefaultPath())
}

func (c *Config) applyEnvOverrides() error {
	if v, ok := os.LookupEnv("MCPHEALTH_LISTEN_ADDR"); ok {
		c.ListenAddr = &v
	}
	if v, ok := os.LookupEnv("MCPHEALTH_ATTEMPT_TIMEOUT"); ok {
		d := &duration{}
		if err := d.unmarshalText(v); err != nil {
			return fmt.Errorf("parse MCPHEALTH_ATTEMPT_TIMEOUT: %w", err)
		}
		c.AttemptTimeout = d
	}
	if v, ok := os.LookupEnv("MCPHEALTH_REQUEST_TIMEOUT"); ok {
		d := &duration{}
		if err := d.unmarshalText(v); err != nil {
			return fmt.Errorf("parse MCPHEALTH_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if v, ok := os.LookupEnv("MCPHEALTH_MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse MCPHEALTH_MAX_BODY_BYTES: %w", err)
		}
		c.MaxBodyBytes = &n
	}
	if v, ok := os.LookupEnv("MCPHEALTH_CLIENT_VERSION"); ok {
		c.ClientVersion = &v
	}
	return nil
}

func (c *Config) validate() error {
	if c.ListenAddr != nil && *c.ListenAddr == "" {
		return errors.New("listen_addr must not be empty")
	}
	if c.AttemptTimeout != nil {
		if d := c.AttemptTimeout.Duration(); d < 0 {
			return fmt.Errorf("attempt_timeout must be non-negative, got %v", d)
		} else if d > maxTimeout {
			return fmt.Errorf("attempt_timeout must not exceed %v, got %v", maxTimeout, d)
		}
	}
	if c.RequestTimeout != nil {
		if d := c.RequestTimeout.Duration(); d <= 0 {
			return fmt.Errorf("request_timeout must be positive, got %v", d)
		} else if d > maxTimeout {
			return fmt.Errorf("request_timeout must not exceed %v, got %v", maxTimeout, d)
		}
	}
	if c.MaxBodyBytes != nil {
		if n := *c.MaxBodyBytes; n < minMaxBodyBytes || n > maxMaxBodyBytes {
			return fmt.Errorf("max_body_bytes must be between %d and %d, got %d", minMaxBodyBytes, maxMaxBodyBytes, n)
		}
	}
	if c.ClientVersion != nil && *c.ClientVersion == "" {
		return errors.New("client_version must not be empty")
	}
	return nil
}

// DefaultPath returns the config file location under XDG_CONFIG_HOME,
// falling back to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName, configFileName)
}
