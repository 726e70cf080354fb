package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Engine.SuffixRatio != 0.5 {
		t.Errorf("default suffix_ratio = %v, want 0.5", cfg.Engine.SuffixRatio)
	}
	if cfg.Engine.MinSuffix != 2 {
		t.Errorf("default min_suffix = %d, want 2", cfg.Engine.MinSuffix)
	}
	if cfg.Search.Limit == 0 {
		t.Error("default search limit must be positive")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictx.toml")

	cfg := DefaultConfig()
	cfg.Engine.SuffixRatio = 0.75
	cfg.Engine.CharTable = "abcdefghijklmnopqrstuvwxyz"
	cfg.Search.MaxDwordLen = 32
	cfg.Search.DepthFirst = true
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", loaded, cfg)
	}
}

func TestInitConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dictx.toml")

	cfg, err := InitConfig(path)
	if err != nil {
		t.Fatalf("InitConfig: %v", err)
	}
	if cfg.Engine.SuffixRatio != 0.5 {
		t.Errorf("created config suffix_ratio = %v, want default", cfg.Engine.SuffixRatio)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file was not created: %v", err)
	}

	// A second init must read the file back, not overwrite it.
	cfg.Search.Limit = 42
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatal(err)
	}
	again, err := InitConfig(path)
	if err != nil {
		t.Fatalf("InitConfig reload: %v", err)
	}
	if again.Search.Limit != 42 {
		t.Errorf("reloaded limit = %d, want 42", again.Search.Limit)
	}
}
