// Package universe loads and validates the declarative instrument
// universe file the engine screens each run (spec §6 "Instrument
// universe"). Plain YAML struct decoding, no exchange-specific symbol
// resolution.
package universe

import (
	"os"

	"gopkg.in/yaml.v3"

	"position-signal-engine/internal/errs"
)

// Instrument is one tradable member of the universe.
type Instrument struct {
	Ticker        string `yaml:"ticker"`
	Name          string `yaml:"name"`
	Sector        string `yaml:"sector"`
	Geography     string `yaml:"geography"`
	IsAllWeather  bool   `yaml:"is_all_weather"`
	LiquidityTier string `yaml:"liquidity_tier"`
}

// Universe is the full, validated instrument list for one run.
type Universe struct {
	Instruments []Instrument
}

type universeFile struct {
	Instruments []Instrument `yaml:"instruments"`
}

// Load reads a YAML universe file and validates every entry carries a
// non-empty ticker. An empty universe is itself an error — the
// orchestrator must exit with the "universe empty" exit code.
func Load(path string) (*Universe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ConfigError{Field: "universe_path", Reason: err.Error()}
	}

	var file universeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, &errs.ConfigError{Field: "universe_yaml", Reason: err.Error()}
	}

	if len(file.Instruments) == 0 {
		return nil, &errs.ConfigError{Field: "instruments", Reason: "universe is empty"}
	}

	for _, inst := range file.Instruments {
		if inst.Ticker == "" {
			return nil, &errs.ConfigError{Field: "instruments", Reason: "an instrument has an empty ticker"}
		}
	}

	return &Universe{Instruments: file.Instruments}, nil
}

// Digest is implemented in digest.go (blake2b over the canonicalized
// instrument list), kept separate so Load stays focused on I/O and
// validation.
