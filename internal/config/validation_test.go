package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(NewConfig()); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestValidate_Learning(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			"zero batch threshold",
			func(c *Config) { c.Learning.BatchThreshold = 0 },
			"batchThreshold",
		},
		{
			"negative batch threshold",
			func(c *Config) { c.Learning.BatchThreshold = -1 },
			"batchThreshold",
		},
		{
			"positive threshold above 1",
			func(c *Config) { c.Learning.PositiveThreshold = 1.5 },
			"positiveThreshold",
		},
		{
			"alpha above 1",
			func(c *Config) { c.Learning.EMAAlpha = 1.1 },
			"emaAlpha",
		},
		{
			"negative learning rate",
			func(c *Config) { c.Learning.RegretLearningRate = -0.1 },
			"regretLearningRate",
		},
		{
			"unknown algorithm",
			func(c *Config) { c.Learning.Algorithm = "quantum" },
			"algorithm",
		},
		{
			"zero history length",
			func(c *Config) { c.Learning.MaxHistoryLength = 0 },
			"maxHistoryLength",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %s", err.Error(), tt.want)
			}
		})
	}
}

func TestValidate_Search(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.SemanticWeight = -0.1
	if err := Validate(cfg); err == nil {
		t.Error("expected error for negative fusion weight")
	}

	cfg = NewConfig()
	cfg.Search.SemanticWeight = 0
	cfg.Search.KeywordWeight = 0
	if err := Validate(cfg); err == nil {
		t.Error("expected error for all-zero fusion weights")
	}

	cfg = NewConfig()
	cfg.Search.ResultLimit = 0
	if err := Validate(cfg); err == nil {
		t.Error("expected error for zero result limit")
	}
}

func TestValidate_AllAlgorithmsAccepted(t *testing.T) {
	for _, algo := range []string{"ema", "confidence", "regret"} {
		cfg := NewConfig()
		cfg.Learning.Algorithm = algo
		if err := Validate(cfg); err != nil {
			t.Errorf("algorithm %s should validate, got: %v", algo, err)
		}
	}
}

func TestLoadFrom_RejectsInvalidKnobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	bad := `{"learning": {"enabled": true, "batchThreshold": -5}}`
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, err := LoadFrom(path)
	var invalid *InvalidConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidConfigError, got %v", err)
	}
}
