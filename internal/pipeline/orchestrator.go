// Package pipeline runs one engine pass end to end: for every
// instrument in the universe, fetch price history, derive market
// data, screen, post-process, then rank the survivors (spec §3
// "Pipeline"); the run-log snapshot is written by the caller. Runs a bounded errgroup fan-out over every
// instrument in the universe instead of scanning symbols serially.
package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"position-signal-engine/config"
	"position-signal-engine/internal/datasource"
	"position-signal-engine/internal/errs"
	"position-signal-engine/internal/marketdata"
	"position-signal-engine/internal/model"
	"position-signal-engine/internal/patterns"
	"position-signal-engine/internal/postprocess"
	"position-signal-engine/internal/ranker"
	"position-signal-engine/internal/screener"
	"position-signal-engine/internal/universe"
)

// Result is one engine pass's final, ranked output.
type Result struct {
	RunID      string
	Setups     []model.Setup
	Rejections []model.Rejection
	Analysed   int
	Evaluated  int
	Partial    bool
}

// Run fans out over u.Instruments with a bounded worker pool, applies
// the fixed per-instrument chain (screen, post-process), then ranks
// and returns the survivors. It does not return early and does not
// stop dispatching once ctx is cancelled: every instrument still goes
// through runOne with the cancelled context, and a fetch that fails
// because of it yields a Rejection with Stage "cancellation". Partial
// is true when ctx is cancelled by the time all instruments have
// finished (spec §9 "Cancellation").
func Run(ctx context.Context, cfg *config.Config, u *universe.Universe, src datasource.Source, logger zerolog.Logger) (Result, error) {
	if len(u.Instruments) == 0 {
		return Result{}, &errs.ConfigError{Field: "universe", Reason: "empty instrument list"}
	}

	registry := patterns.NewRegistry()
	asOf := time.Now().UTC()

	regime := postprocess.RegimeHealthy
	volRegime := postprocess.VolatilityStable

	type outcome struct {
		setup     *model.Setup
		rejection *model.Rejection
	}
	outcomes := make([]outcome, len(u.Instruments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(cfg))

	for i, inst := range u.Instruments {
		i, inst := i, inst
		g.Go(func() error {
			budget := time.Duration(cfg.Worker.PerInstrumentBudgetSeconds) * time.Second
			iCtx, cancel := context.WithTimeout(gctx, budget)
			defer cancel()

			setup, rejection := runOne(iCtx, cfg, inst, src, registry, asOf, regime, volRegime, logger)
			outcomes[i] = outcome{setup: setup, rejection: rejection}
			return nil
		})
	}

	partial := false
	if err := g.Wait(); err != nil {
		partial = true
	}
	if ctx.Err() != nil {
		partial = true
	}

	var preCapSetups []model.Setup
	var rejections []model.Rejection
	evaluated := 0
	for _, o := range outcomes {
		if o.setup != nil {
			preCapSetups = append(preCapSetups, *o.setup)
			evaluated++
		}
		if o.rejection != nil {
			rejections = append(rejections, *o.rejection)
		}
	}

	// preCapSetups is in outcomes/u.Instruments order regardless of
	// which goroutine finished first, so sector-cap admission here is
	// deterministic and independent of worker_count (spec §8).
	setups, capRejections := postprocess.ApplySectorCaps(preCapSetups, cfg.Portfolio.SectorCapPct, cfg.Portfolio.CurrencyAmount, cfg.Portfolio.MinPositionCurrency)
	rejections = append(rejections, capRejections...)

	ranked := ranker.Rank(setups, cfg.Ranking.TopN)

	return Result{
		RunID:      uuid.NewString(),
		Setups:     ranked,
		Rejections: rejections,
		Analysed:   len(u.Instruments),
		Evaluated:  evaluated,
		Partial:    partial,
	}, nil
}

// runOne executes the fixed per-instrument chain: fetch -> derive ->
// screen -> post-process. Any stage may short-circuit into a
// Rejection; none of them return a hard error back to Run except a
// cancellation, which is handled by returning a Rejection(stage=cancellation)
// so one slow instrument never takes down the whole run.
func runOne(ctx context.Context, cfg *config.Config, inst universe.Instrument, src datasource.Source, registry *patterns.Registry, asOf time.Time, regime postprocess.Regime, volRegime postprocess.VolatilityRegime, logger zerolog.Logger) (*model.Setup, *model.Rejection) {
	history, err := src.Fetch(ctx, inst.Ticker, asOf, lookbackYears(cfg))
	if err != nil {
		if ctx.Err() != nil {
			return nil, &model.Rejection{Ticker: inst.Ticker, Stage: "cancellation", Reason: "instrument budget exceeded or run cancelled"}
		}
		logger.Warn().Str("ticker", inst.Ticker).Err(err).Msg("data fetch failed")
		return nil, &model.Rejection{Ticker: inst.Ticker, Stage: "data", Reason: err.Error()}
	}

	md := marketdata.New(history)

	seed := seedFor(cfg.Randomness.MasterSeed, inst.Ticker)
	result := screener.Screen(inst.Ticker, md, registry, cfg, seed)
	if result.Rejected {
		return nil, &model.Rejection{Ticker: inst.Ticker, Stage: "screener", Reason: result.RejectionReason}
	}

	ppInst := postprocess.Instrument{
		Ticker:            inst.Ticker,
		Sector:            inst.Sector,
		Geography:         inst.Geography,
		LiquidityTier:     inst.LiquidityTier,
		IsAllWeather:      inst.IsAllWeather,
		IsDefensiveSector: isDefensiveSector(cfg, inst.Sector),
	}

	return postprocess.Run(ppInst, md, result, cfg, regime, volRegime)
}

func lookbackYears(cfg *config.Config) int {
	maxHorizon := cfg.Horizons.EvaluationHorizon
	for _, h := range cfg.Horizons.Bars {
		if h > maxHorizon {
			maxHorizon = h
		}
	}
	years := (cfg.ContextConfig.LookbackBars+maxHorizon)/252 + 2
	if years < 3 {
		years = 3
	}
	return years
}

func isDefensiveSector(cfg *config.Config, sector string) bool {
	for _, s := range cfg.Portfolio.DefensiveSectors {
		if s == sector {
			return true
		}
	}
	return false
}

func workerCount(cfg *config.Config) int {
	if cfg.Worker.Count > 0 {
		return cfg.Worker.Count
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 4
}

// NewFileDataSource builds the default filesystem-backed Source, rate
// limited per spec §9 "Outbound throttling".
func NewFileDataSource(dir string, ratePerSecond float64, burst int) datasource.Source {
	inner := &datasource.FileSource{Dir: dir}
	limiter := rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	return datasource.NewRateLimited(inner, limiter)
}

// seedFor derives a per-instrument seed from the run's master seed so
// parallel workers are reproducible regardless of scheduling order
// (spec §9 "Randomness"). Mirrors the evaluator package's own
// unexported derivation; kept local here since the two packages
// derive seeds for different keys and neither should import the
// other just for this.
func seedFor(masterSeed int64, ticker string) int64 {
	h := fnv.New64a()
	h.Write([]byte(fmt.Sprintf("%d:%s", masterSeed, ticker)))
	return int64(h.Sum64())
}
