package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	def := DefaultConfig()
	if *cfg != *def {
		t.Fatalf("LoadConfig on missing file = %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadConfigOverlaysPartialYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("bufferPoolCapacity: 25\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BufferPoolCapacity != 25 {
		t.Fatalf("BufferPoolCapacity = %d, want 25", cfg.BufferPoolCapacity)
	}
	if cfg.PageSize != DefaultConfig().PageSize {
		t.Fatalf("omitted PageSize should keep its default, got %d", cfg.PageSize)
	}
}
