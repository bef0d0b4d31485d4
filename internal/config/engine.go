package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig holds the engine-level settings named in the spec: execution
// mode switches, calendar/timezone, cheat-on-open, trade history, and the
// optional CSV writer — loaded from a YAML file, polybot/scranton_strangler
// style.
type EngineConfig struct {
	Preload       bool    `yaml:"preload"`
	Runonce       bool    `yaml:"runonce"`
	Live          bool    `yaml:"live"`
	ExactBars     bool    `yaml:"exactbars"`
	StdStats      bool    `yaml:"stdstats"`
	CheatOnOpen   bool    `yaml:"cheat_on_open"`
	BrokerCoo     bool    `yaml:"broker_coo"`
	Timezone      string  `yaml:"tz"`
	TradeHistory  bool    `yaml:"tradehistory"`
	Writer        bool    `yaml:"writer"`
	WriterCSVPath string  `yaml:"writer_csv_path"`
	StartCash     float64 `yaml:"start_cash"`
}

// DefaultEngineConfig matches the spec's stated defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Preload:      true,
		Runonce:      true,
		Live:         false,
		ExactBars:    false,
		StdStats:     true,
		CheatOnOpen:  false,
		BrokerCoo:    true,
		Timezone:     "UTC",
		TradeHistory: false,
		Writer:       false,
		StartCash:    10000,
	}
}

// LoadEngineConfig reads path as YAML into an EngineConfig seeded with
// DefaultEngineConfig, so a partial file only overrides what it sets.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config.LoadEngineConfig: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config.LoadEngineConfig: parse YAML: %w", err)
	}
	return cfg, nil
}
