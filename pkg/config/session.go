package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordcore/pkg/suggest"
)

// SessionConfig is the JSON file a session is built from.
type SessionConfig struct {
	PrimaryLocale       string                      `json:"primaryLocale"`
	SecondaryLocales    []string                    `json:"secondaryLocales"`
	BaseDictionaries    []string                    `json:"baseDictionaries"`
	UserDictionary      string                      `json:"userDictionary"`
	PredictionWeights   suggest.PredictionWeights   `json:"predictionWeights"`
	KeyProximityChecker suggest.KeyProximityChecker `json:"keyProximityChecker"`
}

// DefaultSessionConfig returns a session with stock weights, no
// dictionaries and the Unicode default locale.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		PredictionWeights: suggest.DefaultPredictionWeights(),
	}
}

// LoadSessionConfig reads and decodes a session JSON file. Weights left
// at zero fall back to the stock tables so a minimal session file only
// has to name its dictionaries.
func LoadSessionConfig(path string) (*SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Errorf("Failed to read session config %s: %v", path, err)
		return nil, err
	}
	cfg := DefaultSessionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding session config %s: %w", path, err)
	}
	if cfg.PredictionWeights.Words.MaxCostSum == 0 {
		cfg.PredictionWeights.Words = suggest.DefaultWeights()
	}
	if cfg.PredictionWeights.Ngrams.MaxCostSum == 0 {
		cfg.PredictionWeights.Ngrams = suggest.DefaultWeights()
	}
	return cfg, nil
}

// SaveSessionConfig writes the session JSON file.
func SaveSessionConfig(cfg *SessionConfig, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
