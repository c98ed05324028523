/*
Package config handles loading, saving, and validating codebase-index-mcp
configuration.

Configuration is stored in ~/.codebase-index-mcp.json using camelCase keys.

Schema:

	{
	  "learning": {
	    "enabled": true,
	    "batchThreshold": 10,
	    "positiveThreshold": 0.5,
	    "maxHistoryLength": 1000,
	    "emaAlpha": 0.3,
	    "regretLearningRate": 0.1,
	    "algorithm": "ema"
	  },
	  "search": {
	    "semanticWeight": 0.7,
	    "keywordWeight": 0.3,
	    "indexPath": "",
	    "resultLimit": 10
	  },
	  "storage": {
	    "dbPath": ""
	  },
	  "logLevel": "info"
	}
*/
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config represents the root configuration structure.
type Config struct {
	// Learning controls the adaptive feedback loop.
	Learning *LearningSettings `json:"learning,omitempty"`

	// Search controls hybrid search and fusion.
	Search *SearchSettings `json:"search,omitempty"`

	// Storage controls the sqlite persistence layer.
	Storage *StorageSettings `json:"storage,omitempty"`

	// LogLevel sets the logger level (debug, info, warn, error).
	LogLevel string `json:"logLevel,omitempty"`
}

// LearningSettings tunes the feedback-driven weight adaptation.
type LearningSettings struct {
	// Enabled toggles feedback collection entirely. A learning section
	// that omits the key gets the default (true); only an explicit
	// "enabled": false turns learning off.
	Enabled bool `json:"enabled"`

	// BatchThreshold is how many feedback events trigger an adaptation cycle.
	BatchThreshold int `json:"batchThreshold,omitempty"`

	// PositiveThreshold is the relevance score at or above which feedback
	// counts as positive.
	PositiveThreshold float64 `json:"positiveThreshold,omitempty"`

	// MaxHistoryLength caps the accuracy time series kept in memory.
	MaxHistoryLength int `json:"maxHistoryLength,omitempty"`

	// EMAAlpha is the smoothing factor for exponential moving average.
	EMAAlpha float64 `json:"emaAlpha,omitempty"`

	// RegretLearningRate is the step size for regret-based adjustment.
	RegretLearningRate float64 `json:"regretLearningRate,omitempty"`

	// Algorithm is the default adaptation rule: ema, confidence, or regret.
	Algorithm string `json:"algorithm,omitempty"`
}

// UnmarshalJSON keeps Enabled defaulting to true when the key is absent,
// since the plain bool zero value cannot tell absent from false.
func (l *LearningSettings) UnmarshalJSON(data []byte) error {
	type plain LearningSettings
	aux := struct {
		Enabled *bool `json:"enabled"`
		*plain
	}{plain: (*plain)(l)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Enabled == nil {
		l.Enabled = true
	} else {
		l.Enabled = *aux.Enabled
	}
	return nil
}

// SearchSettings tunes indexing and hybrid fusion.
type SearchSettings struct {
	// SemanticWeight is the semantic channel share in hybrid fusion.
	SemanticWeight float64 `json:"semanticWeight,omitempty"`

	// KeywordWeight is the BM25 channel share in hybrid fusion.
	KeywordWeight float64 `json:"keywordWeight,omitempty"`

	// IndexPath overrides the bleve index location. Empty means in-memory.
	IndexPath string `json:"indexPath,omitempty"`

	// ResultLimit is the default number of results per search.
	ResultLimit int `json:"resultLimit,omitempty"`
}

// StorageSettings tunes the sqlite layer.
type StorageSettings struct {
	// DBPath overrides the database location.
	// Empty means ~/.codebase-index-mcp/index.db.
	DBPath string `json:"dbPath,omitempty"`
}

// NewConfig creates a configuration with all defaults filled in.
func NewConfig() *Config {
	return &Config{
		Learning: &LearningSettings{
			Enabled:            true,
			BatchThreshold:     10,
			PositiveThreshold:  0.5,
			MaxHistoryLength:   1000,
			EMAAlpha:           0.3,
			RegretLearningRate: 0.1,
			Algorithm:          "ema",
		},
		Search: &SearchSettings{
			SemanticWeight: 0.7,
			KeywordWeight:  0.3,
			ResultLimit:    10,
		},
		Storage:  &StorageSettings{},
		LogLevel: "info",
	}
}

// GetDefaultConfigPath returns the path to ~/.codebase-index-mcp.json
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", &PermissionError{
			Op:      "read",
			Path:    "~",
			Fix:     "ensure HOME is set",
			Details: err.Error(),
		}
	}
	return filepath.Join(home, ".codebase-index-mcp.json"), nil
}

// Load reads the configuration from the default path.
func Load() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigNotFoundError{
				Path: path,
				Hint: "run 'codebase-index-mcp serve' once to create a default config",
			}
		}
		if os.IsPermission(err) {
			return nil, &PermissionError{
				Op:   "read",
				Path: path,
				Fix:  "chmod 644 " + path,
			}
		}
		return nil, &InvalidConfigError{Path: path, Message: err.Error()}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: err.Error(),
			Hint:    "check the file for JSON syntax errors",
		}
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: err.Error(),
			Hint:    "fix the value or delete the file to regenerate defaults",
		}
	}

	return &cfg, nil
}

// LoadOrCreate loads the configuration, writing a default file when none
// exists yet.
func LoadOrCreate(path string) (*Config, error) {
	cfg, err := LoadFrom(path)
	if err == nil {
		return cfg, nil
	}

	var notFound *ConfigNotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	cfg = NewConfig()
	if err := Save(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified path.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return &InvalidConfigError{Path: path, Message: err.Error()}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &PermissionError{
			Op:      "write",
			Path:    dir,
			Fix:     "check directory permissions",
			Details: err.Error(),
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		if os.IsPermission(err) {
			return &PermissionError{
				Op:   "write",
				Path: path,
				Fix:  "chmod 644 " + path,
			}
		}
		return &InvalidConfigError{Path: path, Message: err.Error()}
	}

	return nil
}

// applyDefaults fills zero-valued sections and knobs with defaults so a
// sparse config file behaves like a full one.
func applyDefaults(cfg *Config) {
	defaults := NewConfig()

	if cfg.Learning == nil {
		cfg.Learning = defaults.Learning
	} else {
		if cfg.Learning.BatchThreshold == 0 {
			cfg.Learning.BatchThreshold = defaults.Learning.BatchThreshold
		}
		if cfg.Learning.PositiveThreshold == 0 {
			cfg.Learning.PositiveThreshold = defaults.Learning.PositiveThreshold
		}
		if cfg.Learning.MaxHistoryLength == 0 {
			cfg.Learning.MaxHistoryLength = defaults.Learning.MaxHistoryLength
		}
		if cfg.Learning.EMAAlpha == 0 {
			cfg.Learning.EMAAlpha = defaults.Learning.EMAAlpha
		}
		if cfg.Learning.RegretLearningRate == 0 {
			cfg.Learning.RegretLearningRate = defaults.Learning.RegretLearningRate
		}
		if cfg.Learning.Algorithm == "" {
			cfg.Learning.Algorithm = defaults.Learning.Algorithm
		}
	}

	if cfg.Search == nil {
		cfg.Search = defaults.Search
	} else {
		if cfg.Search.SemanticWeight == 0 && cfg.Search.KeywordWeight == 0 {
			cfg.Search.SemanticWeight = defaults.Search.SemanticWeight
			cfg.Search.KeywordWeight = defaults.Search.KeywordWeight
		}
		if cfg.Search.ResultLimit == 0 {
			cfg.Search.ResultLimit = defaults.Search.ResultLimit
		}
	}

	if cfg.Storage == nil {
		cfg.Storage = defaults.Storage
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
}
