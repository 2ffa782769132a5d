// Package config loads the optional CLI configuration of a store.
package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/verso/pkg/core"
)

// Output formats accepted by Config.Output.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config holds the settings read from .verso.yaml.
type Config struct {
	// Author signs every change made through the CLI.
	Author core.Author `yaml:"author"`

	// Hook installs the post-update hook when the store is initialized.
	Hook bool `yaml:"hook,omitempty"`

	// Binary overrides the git executable.
	Binary string `yaml:"binary,omitempty"`

	// Output is the default output format: text, json or yaml.
	Output string `yaml:"output,omitempty"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Author.Email != "" {
		if _, err := mail.ParseAddress(c.Author.Email); err != nil {
			return fmt.Errorf("author.email: %w", err)
		}
	}
	switch c.Output {
	case "", OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("output %q must be one of text, json, yaml", c.Output)
	}
	return nil
}

// Load reads the configuration at path. A missing file yields the zero Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
