// Package config loads and validates the engine's single immutable
// configuration value. No process-wide mutable singletons: the
// orchestrator receives a *Config and threads it explicitly through
// every pipeline stage (spec §9 "Configuration").
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"position-signal-engine/internal/errs"
)

// Config is the single typed configuration structure recognized by
// the engine (spec §6). Every sub-struct maps to one concern:
// horizons, sample sizes, quality gates, portfolio, costs, regime,
// ranking, workers, randomness, logging, data source, store, server,
// vault, schedule.
type Config struct {
	Horizons        HorizonsConfig        `yaml:"horizons" validate:"required"`
	ContextConfig   ContextConfig         `yaml:"context"`
	SampleSizeTiers SampleSizeTiersConfig `yaml:"min_sample_sizes"`
	QualityGates    QualityGatesConfig    `yaml:"quality_gates"`
	Portfolio       PortfolioConfig       `yaml:"portfolio" validate:"required"`
	Costs           CostConfig            `yaml:"costs"`
	Regime          RegimeConfig          `yaml:"regime"`
	Ranking         RankingConfig         `yaml:"ranking"`
	Worker          WorkerConfig          `yaml:"worker"`
	Randomness      RandomnessConfig      `yaml:"randomness"`
	Logging         LoggingConfig         `yaml:"logging"`
	DataSource      DataSourceConfig      `yaml:"data_source" validate:"required"`
	Store           StoreConfig           `yaml:"store"`
	Server          ServerConfig          `yaml:"server"`
	Vault           VaultConfig           `yaml:"vault"`
	Schedule        ScheduleConfig        `yaml:"schedule"`
}

// DataSourceConfig holds the price-history fixture location and
// outbound fetch throttling (spec §9 "Outbound throttling").
type DataSourceConfig struct {
	Dir           string  `yaml:"dir" validate:"required"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// HorizonsConfig enumerates the forward-return measurement windows
// (bars). Spec default: {21, 42, 63}.
type HorizonsConfig struct {
	Bars              []int `yaml:"bars" validate:"required,min=1,dive,gt=0"`
	EvaluationHorizon int   `yaml:"evaluation_horizon" validate:"required,gt=0"`
}

// ContextConfig holds the market-context ("Vattenpasset") gate.
type ContextConfig struct {
	MinDeclinePct float64 `yaml:"min_decline_pct" validate:"gt=0,lt=1"`
	LookbackBars  int     `yaml:"lookback_bars" validate:"gt=0"`
}

// SampleSizeTiersConfig holds the sample-size thresholds per tier.
type SampleSizeTiersConfig struct {
	Core      int `yaml:"core" validate:"required,gt=0"`
	Primary   int `yaml:"primary" validate:"required,gt=0"`
	Secondary int `yaml:"secondary" validate:"required,gt=0"`
}

// QualityGatesConfig holds the evaluator's accept/reject floors.
type QualityGatesConfig struct {
	EVFloor               float64 `yaml:"ev_floor"`
	RRRFloor              float64 `yaml:"rrr_floor" validate:"gt=0"`
	PermutationTrials     int     `yaml:"permutation_trials" validate:"gt=0"`
	PermutationPct        float64 `yaml:"permutation_percentile" validate:"gt=0,lt=1"`
	RegimeStabilityFactor float64 `yaml:"regime_stability_factor" validate:"gt=0,lte=1"`
}

// PortfolioConfig holds portfolio-level sizing inputs.
type PortfolioConfig struct {
	CurrencyAmount      float64  `yaml:"portfolio_currency_amount" validate:"required,gt=0"`
	MinPositionCurrency float64  `yaml:"min_position_currency" validate:"gt=0"`
	Currency            string   `yaml:"currency" validate:"required"`
	SectorCapPct        float64  `yaml:"sector_cap_pct" validate:"gt=0,lte=1"`
	AllWeatherTickers   []string `yaml:"all_weather_tickers"`
	DefensiveSectors    []string `yaml:"defensive_sectors"`
}

// CostConfig holds the execution-cost model inputs.
type CostConfig struct {
	NetEdgeFloor      float64            `yaml:"net_edge_floor"`
	FXByGeography     map[string]float64 `yaml:"fx_cost_by_geography"`
	CourtageTiers     []CourtageTier     `yaml:"courtage_tiers"`
	SpreadByLiquidity map[string]float64 `yaml:"spread_by_liquidity"`
	SlippageBase      float64            `yaml:"slippage_base" validate:"gt=0"`
}

// CourtageTier is one broker commission bracket.
type CourtageTier struct {
	Name        string  `yaml:"name"`
	MaxNotional float64 `yaml:"max_notional"`
	MinFee      float64 `yaml:"min_fee"`
	Rate        float64 `yaml:"rate"`
}

// RegimeConfig holds the market-regime multiplier table.
type RegimeConfig struct {
	Multipliers map[string]float64 `yaml:"multipliers"`
}

// RankingConfig holds final-output sizing.
type RankingConfig struct {
	TopN int `yaml:"top_n" validate:"required,gt=0"`
}

// WorkerConfig holds the concurrency model's tunables.
type WorkerConfig struct {
	Count                      int `yaml:"worker_count"`
	PerInstrumentBudgetSeconds int `yaml:"per_instrument_budget_seconds" validate:"gt=0"`
}

// RandomnessConfig holds the explicit seed required by spec §9.
type RandomnessConfig struct {
	MasterSeed int64 `yaml:"master_seed"`
}

// ScheduleConfig holds cmd/scheduler's recurring-run cron expression.
type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// LoggingConfig controls the zerolog setup.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"json_format"`
	Output     string `yaml:"output"`
}

// StoreConfig holds the persisted-indicator-cache connection info.
type StoreConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	RunLogDir   string `yaml:"run_log_dir" validate:"required"`
}

// ServerConfig holds the read-only run-log query service's settings.
type ServerConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Addr         string   `yaml:"addr"`
	JWTSecret    string   `yaml:"jwt_secret"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// VaultConfig holds optional HashiCorp Vault secret resolution.
type VaultConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// Load reads a YAML config file, loads a .env file into the process
// environment if present (no config field is read from the
// environment), and validates the result. Any failure is a fatal *errs.ConfigError —
// nothing downstream of Load ever runs on an invalid config.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional .env overlay; absence is not an error

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ConfigError{Field: "path", Reason: err.Error()}
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &errs.ConfigError{Field: "yaml", Reason: err.Error()}
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Horizons.Bars) == 0 {
		cfg.Horizons.Bars = []int{21, 42, 63}
	}
	if cfg.Horizons.EvaluationHorizon == 0 {
		cfg.Horizons.EvaluationHorizon = 63
	}
	if cfg.ContextConfig.MinDeclinePct == 0 {
		cfg.ContextConfig.MinDeclinePct = 0.10
	}
	if cfg.ContextConfig.LookbackBars == 0 {
		cfg.ContextConfig.LookbackBars = 90
	}
	if cfg.SampleSizeTiers.Core == 0 {
		cfg.SampleSizeTiers.Core = 150
	}
	if cfg.SampleSizeTiers.Primary == 0 {
		cfg.SampleSizeTiers.Primary = 75
	}
	if cfg.SampleSizeTiers.Secondary == 0 {
		cfg.SampleSizeTiers.Secondary = 30
	}
	if cfg.QualityGates.RRRFloor == 0 {
		cfg.QualityGates.RRRFloor = 3.0
	}
	if cfg.QualityGates.PermutationTrials == 0 {
		cfg.QualityGates.PermutationTrials = 1000
	}
	if cfg.QualityGates.PermutationPct == 0 {
		cfg.QualityGates.PermutationPct = 0.95
	}
	if cfg.QualityGates.RegimeStabilityFactor == 0 {
		cfg.QualityGates.RegimeStabilityFactor = 0.5
	}
	if cfg.Portfolio.MinPositionCurrency == 0 {
		cfg.Portfolio.MinPositionCurrency = 1500
	}
	if cfg.Portfolio.SectorCapPct == 0 {
		cfg.Portfolio.SectorCapPct = 0.40
	}
	if cfg.Costs.SlippageBase == 0 {
		cfg.Costs.SlippageBase = 0.001
	}
	if cfg.Ranking.TopN == 0 {
		cfg.Ranking.TopN = 5
	}
	if cfg.Worker.Count <= 0 {
		cfg.Worker.Count = 0 // resolved to runtime.NumCPU() by the orchestrator
	}
	if cfg.Worker.PerInstrumentBudgetSeconds == 0 {
		cfg.Worker.PerInstrumentBudgetSeconds = 30
	}
	if len(cfg.Regime.Multipliers) == 0 {
		cfg.Regime.Multipliers = map[string]float64{
			"HEALTHY":  1.0,
			"CAUTIOUS": 0.7,
			"STRESSED": 0.4,
			"CRISIS":   0.2,
		}
	}
	if cfg.DataSource.RatePerSecond == 0 {
		cfg.DataSource.RatePerSecond = 5.0
	}
	if cfg.DataSource.Burst == 0 {
		cfg.DataSource.Burst = 10
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 18 * * 1-5" // weekday evenings, after market close
	}
}

func validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return &errs.ConfigError{Field: "struct", Reason: err.Error()}
	}
	if cfg.Worker.Count < 0 {
		return &errs.ConfigError{Field: "worker.worker_count", Reason: "must be >= 0"}
	}
	return nil
}

// String renders a config summary safe for logging (never includes
// secrets).
func (c *Config) String() string {
	return fmt.Sprintf("Config{horizons=%v eval=%d top_n=%d workers=%d}",
		c.Horizons.Bars, c.Horizons.EvaluationHorizon, c.Ranking.TopN, c.Worker.Count)
}
