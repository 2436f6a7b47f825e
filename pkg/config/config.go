// Package config provides configuration loading and management for tractoproj.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tractoproj/pkg/dictionary"
	"tractoproj/pkg/projection"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Compartment counts the projection is configured for
	Compartments struct {
		// IC is the number of intra-axonal compartments (different radii)
		IC int `yaml:"ic"`

		// EC is the number of extra-axonal compartments (different tortuosity)
		EC int `yaml:"ec"`

		// ISO is the number of isotropic compartments
		ISO int `yaml:"iso"`
	} `yaml:"compartments"`

	// Processing parameters
	Processing struct {
		// Threads is the largest number of parallel IC workers a dataset may
		// ask for, from 1 to 16. The dataset partition fixes the actual count.
		Threads int `yaml:"threads"`

		// Checked validates every input array before each projection
		Checked bool `yaml:"checked"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`

		// SignalFile is where the raw predicted signal is written, if set
		SignalFile string `yaml:"signalFile"`

		// SlicesDir is where per-sample slice images are written, if set
		SlicesDir string `yaml:"slicesDir"`

		// SliceSample is the signal sample rendered into slice images
		SliceSample int `yaml:"sliceSample"`
	} `yaml:"output"`

	// Metrics parameters
	Metrics struct {
		// Enabled turns on Prometheus metrics collection
		Enabled bool `yaml:"enabled"`

		// File is the Prometheus text file the metrics are written to
		File string `yaml:"file"`
	} `yaml:"metrics"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default compartment counts
	cfg.Compartments.IC = 1
	cfg.Compartments.EC = 1
	cfg.Compartments.ISO = 1

	// Set default processing parameters
	cfg.Processing.Threads = dictionary.MaxThreads // Allow any partition
	cfg.Processing.Checked = false

	// Set default output parameters
	cfg.Output.Verbose = false
	cfg.Output.SliceSample = 0

	// Set default metrics parameters
	cfg.Metrics.Enabled = false
	cfg.Metrics.File = "tractoproj.prom"

	return cfg
}

// Counts returns the configured compartment counts
func (c *Config) Counts() dictionary.Counts {
	return dictionary.Counts{
		IC:  c.Compartments.IC,
		EC:  c.Compartments.EC,
		ISO: c.Compartments.ISO,
	}
}

// EngineConfig converts the configuration into a projection engine configuration
func (c *Config) EngineConfig() projection.Config {
	return projection.Config{
		Counts:  c.Counts(),
		Threads: c.Processing.Threads,
		Checked: c.Processing.Checked,
	}
}

// Validate checks that the configuration describes a supported engine
func (c *Config) Validate() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Output.SliceSample < 0 {
		return fmt.Errorf("invalid configuration: slice sample %d must be non-negative", c.Output.SliceSample)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
