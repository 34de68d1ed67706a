package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/grid-splitter/pkg/types"
)

// Config holds the application configuration.
type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// GridConfig holds the default grid parameters.
type GridConfig struct {
	Columns    int  `yaml:"columns"`
	Rows       int  `yaml:"rows"`
	Padding    int  `yaml:"padding"`
	AutoDetect bool `yaml:"auto_detect"`
}

// OutputConfig holds configuration for output generation.
type OutputConfig struct {
	Format   string `yaml:"format"`
	Quality  int    `yaml:"quality"`
	Lossless bool   `yaml:"lossless"`
	Dir      string `yaml:"dir"`
	Archive  bool   `yaml:"archive"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Columns:    2,
			Rows:       2,
			Padding:    0,
			AutoDetect: true,
		},
		Output: OutputConfig{
			Format:  "png",
			Quality: 90,
			Dir:     "./out",
		},
		Logging: LoggingConfig{
			Development: false,
		},
	}
}

// LoadFromFile loads configuration from a YAML file, applied on top of
// the defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Grid.Columns < 1 {
		return fmt.Errorf("grid.columns must be at least 1")
	}
	if c.Grid.Rows < 1 {
		return fmt.Errorf("grid.rows must be at least 1")
	}
	if c.Grid.Padding < 0 {
		return fmt.Errorf("grid.padding must not be negative")
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}
	switch c.Output.Format {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("output.format must be png, jpg, or webp")
	}
	return nil
}

// Split returns the grid parameters as the core's GridConfig.
func (c *Config) Split() types.GridConfig {
	return types.GridConfig{
		Columns: c.Grid.Columns,
		Rows:    c.Grid.Rows,
		Padding: c.Grid.Padding,
	}
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "grid-splitter", "config.yaml")
}
