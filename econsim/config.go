package econsim

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aspired-future/startales-econsim/econsim/database"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log LogConfig         `toml:"log"`
	Sim SimConfig         `toml:"sim"`
	DB  database.DBConfig `toml:"db"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type SimConfig struct {
	// TickInterval is the wall-clock seconds between simulation ticks.
	TickInterval int `toml:"tick_interval"`
	// Civilizations lists the civilization IDs the tick runner advances.
	Civilizations []string `toml:"civilizations"`
	// FiscalDecayRetention is the fraction of fiscal modifiers kept per
	// decay pass; 1 disables decay.
	FiscalDecayRetention float64 `toml:"fiscal_decay_retention"`
	// RandomSeed seeds mobility resolution; 0 selects the crypto source.
	RandomSeed int64 `toml:"random_seed"`
}
