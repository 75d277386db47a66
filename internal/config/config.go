// Package config provides configuration management for desshell.
//
// The config file holds the connection profiles (one per catalog
// database) plus session defaults. It stands in for the original
// service file and is rewritten in place when a password changes.
//
// Config file locations (priority order):
//  1. $DESSHELL_CONFIG
//  2. ./desshell.yaml
//  3. ~/.config/desshell/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Version        int                `yaml:"version"`
	DefaultProfile string             `yaml:"default_profile"`
	Prefetch       int                `yaml:"prefetch,omitempty"`       // rows fetched per round trip
	ChunkSize      int                `yaml:"chunksize,omitempty"`      // default bulk-insert chunk
	MaxFileMB      int                `yaml:"outfile_max_mb,omitempty"` // export file rotation cap
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile describes one database connection
type Profile struct {
	Driver   string `yaml:"driver"` // oracle or sqlite
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Service  string `yaml:"service,omitempty"` // Oracle service name
	Path     string `yaml:"path,omitempty"`    // SQLite database path
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path. Profiles carry passwords,
// so the file is only readable by the owner.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	// An earlier run may have left the file group/world readable
	return os.Chmod(path, 0600)
}

// DefaultConfig returns a local SQLite setup for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:        1,
		DefaultProfile: "local",
		Prefetch:       10000,
		ChunkSize:      50000,
		MaxFileMB:      1000,
		Profiles: map[string]Profile{
			"local": {Driver: "sqlite", Path: "./desshell.db"},
		},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Prefetch <= 0 {
		c.Prefetch = 10000
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 50000
	}
	if c.MaxFileMB <= 0 {
		c.MaxFileMB = 1000
	}
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}
	if c.DefaultProfile == "" {
		for name := range c.Profiles {
			c.DefaultProfile = name
			break
		}
		if c.DefaultProfile == "" {
			c.DefaultProfile = "local"
			c.Profiles["local"] = Profile{Driver: "sqlite", Path: "./desshell.db"}
		}
	}
}

// Profile returns the named profile, or the default when name is empty
func (c *Config) Profile(name string) (Profile, string, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, name, fmt.Errorf("profile %q not found in config", name)
	}
	return p, name, nil
}

// SetPassword updates the stored password for a profile
func (c *Config) SetPassword(name, password string) error {
	p, ok := c.Profiles[name]
	if !ok {
		return fmt.Errorf("profile %q not found in config", name)
	}
	p.Password = password
	c.Profiles[name] = p
	return nil
}

// FindConfigPath searches the standard locations and returns the first
// config file that exists, or "" when none is found
func FindConfigPath() string {
	if path := os.Getenv("DESSHELL_CONFIG"); path != "" {
		return path
	}

	candidates := []string{"./desshell.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "desshell", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// DefaultSavePath is where Save writes when the config was built from
// defaults and has no file yet
func DefaultSavePath() string {
	if path := os.Getenv("DESSHELL_CONFIG"); path != "" {
		return path
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "desshell", "config.yaml")
	}
	return "./desshell.yaml"
}
