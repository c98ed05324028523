package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	if !cfg.Learning.Enabled {
		t.Error("learning should be enabled by default")
	}
	if cfg.Learning.BatchThreshold != 10 {
		t.Errorf("expected batchThreshold 10, got %d", cfg.Learning.BatchThreshold)
	}
	if cfg.Learning.PositiveThreshold != 0.5 {
		t.Errorf("expected positiveThreshold 0.5, got %f", cfg.Learning.PositiveThreshold)
	}
	if cfg.Learning.EMAAlpha != 0.3 {
		t.Errorf("expected emaAlpha 0.3, got %f", cfg.Learning.EMAAlpha)
	}
	if cfg.Learning.Algorithm != "ema" {
		t.Errorf("expected algorithm ema, got %s", cfg.Learning.Algorithm)
	}
	if cfg.Search.SemanticWeight != 0.7 || cfg.Search.KeywordWeight != 0.3 {
		t.Errorf("expected fusion 0.7/0.3, got %f/%f",
			cfg.Search.SemanticWeight, cfg.Search.KeywordWeight)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.LogLevel)
	}
}

func TestSaveAndLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := NewConfig()
	cfg.Learning.BatchThreshold = 25
	cfg.Search.IndexPath = "/tmp/test-index"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Learning.BatchThreshold != 25 {
		t.Errorf("expected batchThreshold 25, got %d", loaded.Learning.BatchThreshold)
	}
	if loaded.Search.IndexPath != "/tmp/test-index" {
		t.Errorf("expected indexPath round-tripped, got %s", loaded.Search.IndexPath)
	}
}

func TestLoadFrom_NotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	_, err := LoadFrom(path)
	var notFound *ConfigNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ConfigNotFoundError, got %v", err)
	}
	if notFound.Path != path {
		t.Errorf("error should carry the path, got %s", notFound.Path)
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, err := LoadFrom(path)
	var invalid *InvalidConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidConfigError, got %v", err)
	}
}

func TestLoadFrom_SparseFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	sparse := `{"learning": {"enabled": true, "batchThreshold": 5}}`
	if err := os.WriteFile(path, []byte(sparse), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Learning.BatchThreshold != 5 {
		t.Errorf("explicit value should survive, got %d", cfg.Learning.BatchThreshold)
	}
	if cfg.Learning.EMAAlpha != 0.3 {
		t.Errorf("missing knob should default, got %f", cfg.Learning.EMAAlpha)
	}
	if cfg.Search == nil || cfg.Search.SemanticWeight != 0.7 {
		t.Error("missing section should default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("missing log level should default, got %s", cfg.LogLevel)
	}
}

func TestLoadFrom_OmittedEnabledDefaultsTrue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	sparse := `{"learning": {"batchThreshold": 20}}`
	if err := os.WriteFile(path, []byte(sparse), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if !cfg.Learning.Enabled {
		t.Error("omitted enabled key should default to true")
	}
	if cfg.Learning.BatchThreshold != 20 {
		t.Errorf("explicit value should survive, got %d", cfg.Learning.BatchThreshold)
	}
}

func TestLoadFrom_ExplicitDisabledSticks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	disabled := `{"learning": {"enabled": false}}`
	if err := os.WriteFile(path, []byte(disabled), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Learning.Enabled {
		t.Error("explicit enabled=false must not be overridden by defaults")
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if cfg.Learning.BatchThreshold != 10 {
		t.Errorf("expected default config created, got threshold %d", cfg.Learning.BatchThreshold)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file written: %v", err)
	}

	// Second call loads the existing file.
	cfg.Learning.BatchThreshold = 42
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	again, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate failed on existing file: %v", err)
	}
	if again.Learning.BatchThreshold != 42 {
		t.Errorf("expected existing file loaded, got %d", again.Learning.BatchThreshold)
	}
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.json")

	if err := Save(NewConfig(), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file written: %v", err)
	}
}
