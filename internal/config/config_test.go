package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero columns", func(c *Config) { c.Grid.Columns = 0 }},
		{"zero rows", func(c *Config) { c.Grid.Rows = 0 }},
		{"negative padding", func(c *Config) { c.Grid.Padding = -1 }},
		{"quality too high", func(c *Config) { c.Output.Quality = 101 }},
		{"unknown format", func(c *Config) { c.Output.Format = "bmp" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Grid.Columns = 5
	cfg.Grid.AutoDetect = false
	cfg.Output.Format = "webp"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Grid.Columns != 5 {
		t.Errorf("columns = %d, want 5", loaded.Grid.Columns)
	}
	if loaded.Grid.AutoDetect {
		t.Error("auto_detect should be false")
	}
	if loaded.Output.Format != "webp" {
		t.Errorf("format = %s, want webp", loaded.Output.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSplit(t *testing.T) {
	cfg := Default()
	cfg.Grid.Columns = 4
	cfg.Grid.Rows = 2
	cfg.Grid.Padding = 10

	grid := cfg.Split()
	if grid.Columns != 4 || grid.Rows != 2 || grid.Padding != 10 {
		t.Errorf("Split() = %+v", grid)
	}
}
