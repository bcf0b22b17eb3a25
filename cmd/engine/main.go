// cmd/engine runs one full engine pass: load config and universe,
// fan the pipeline out over every instrument, rank the survivors, and
// write a run-log snapshot. Exit codes follow spec §9 "Process exit
// codes": 0 normal, 1 config error, 2 empty or invalid universe file
// (any *errs.ConfigError from universe.Load, including a missing file),
// 3 cancellation, 4 unexpected internal error. Startup sequence:
// config.Load, logging init, signal handling, then a single batch pass
// instead of a long-running loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"position-signal-engine/config"
	"position-signal-engine/internal/errs"
	"position-signal-engine/internal/model"
	"position-signal-engine/internal/pipeline"
	"position-signal-engine/internal/report"
	"position-signal-engine/internal/store"
	"position-signal-engine/internal/universe"
)

const (
	exitOK            = 0
	exitConfigError   = 1
	exitEmptyUniverse = 2
	exitCancelled     = 3
	exitInternalError = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to engine config")
	universePath := flag.String("universe", "universe.yaml", "path to instrument universe")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return exitConfigError
	}

	logger := config.NewLogger(cfg.Logging)

	u, err := universe.Load(*universePath)
	if err != nil {
		if _, ok := err.(*errs.ConfigError); ok {
			logger.Error().Err(err).Msg("universe is empty or invalid")
			return exitEmptyUniverse
		}
		logger.Error().Err(err).Msg("failed to load universe")
		return exitConfigError
	}
	if len(u.Instruments) == 0 {
		logger.Error().Msg("universe contains no instruments")
		return exitEmptyUniverse
	}

	secrets, err := config.ResolveSecrets(&cfg.Vault)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve secrets")
		return exitConfigError
	}
	applySecrets(cfg, secrets)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn().Msg("cancellation requested, finishing in-flight instruments")
		cancel()
	}()

	src := pipeline.NewFileDataSource(cfg.DataSource.Dir, cfg.DataSource.RatePerSecond, cfg.DataSource.Burst)

	result, err := pipeline.Run(ctx, cfg, u, src, logger)
	if err != nil {
		logger.Error().Err(err).Msg("pipeline run failed")
		return exitInternalError
	}

	logger.Info().
		Str("run_id", result.RunID).
		Int("analysed", result.Analysed).
		Int("evaluated", result.Evaluated).
		Int("surviving", len(result.Setups)).
		Bool("partial", result.Partial).
		Msg("run complete")

	report.LogWarnings(logger, result.Setups)
	report.LogRejections(logger, result.Rejections)

	if err := report.WriteText(os.Stdout, result.Setups, summaryFor(result)); err != nil {
		logger.Error().Err(err).Msg("failed to write text report")
	}

	cache, redisFront := openStores(cfg, logger)
	cacheRunMetrics(ctx, cache, redisFront, result.Setups, logger)

	snap := store.NewRunSnapshot(time.Now().UTC(), cfg.Digest(), u.Digest(), result.Partial, result.Setups, result.Rejections)
	path, err := store.WriteSnapshot(cfg.Store.RunLogDir, snap)
	if err != nil {
		logger.Error().Err(err).Msg("failed to write run snapshot")
		return exitInternalError
	}
	logger.Info().Str("path", path).Msg("run snapshot written")

	if result.Partial {
		return exitCancelled
	}
	return exitOK
}

func applySecrets(cfg *config.Config, secrets *config.Secrets) {
	if secrets.PostgresDSN != "" {
		cfg.Store.PostgresDSN = secrets.PostgresDSN
	}
	if secrets.RedisAddr != "" {
		cfg.Store.RedisAddr = secrets.RedisAddr
	}
}

func summaryFor(result pipeline.Result) report.Summary {
	byStage := make(map[string]int)
	for _, r := range result.Rejections {
		byStage[r.Stage]++
	}
	return report.Summary{Analysed: result.Analysed, Evaluated: result.Evaluated, RejectedByStage: byStage}
}

// openStores connects the optional indicator cache and its Redis
// front, returning nils when unconfigured (spec §6 "Persisted state"
// notes the cache is an optimization, not a hard dependency).
func openStores(cfg *config.Config, logger zerolog.Logger) (*store.IndicatorCache, *store.RedisFront) {
	var cache *store.IndicatorCache
	var front *store.RedisFront

	if cfg.Store.PostgresDSN != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Store.PostgresDSN)
		if err != nil {
			logger.Warn().Err(err).Msg("indicator cache unavailable, continuing without it")
		} else {
			cache = store.NewIndicatorCache(pool)
			if err := cache.EnsureSchema(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("failed to ensure indicator_cache schema")
				cache = nil
			}
		}
	}
	if cfg.Store.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		front = store.NewRedisFront(client, time.Hour)
	}
	return cache, front
}

// cacheRunMetrics persists each surviving setup's win rate and
// expected value keyed by (ticker, as_of, indicator, horizon) so a
// dashboard or the next run's diagnostics can read them without
// re-parsing the run snapshot (spec §5 "Shared resources").
func cacheRunMetrics(ctx context.Context, cache *store.IndicatorCache, front *store.RedisFront, setups []model.Setup, logger zerolog.Logger) {
	if cache == nil && front == nil {
		return
	}
	asOf := time.Now().UTC()
	for _, s := range setups {
		winRateKey := store.IndicatorKey{Ticker: s.Ticker, AsOf: asOf, Indicator: "win_rate", Window: 0}
		evKey := store.IndicatorKey{Ticker: s.Ticker, AsOf: asOf, Indicator: "expected_value", Window: 0}

		if cache != nil {
			if err := cache.Put(ctx, winRateKey, s.WinRate); err != nil {
				logger.Debug().Err(err).Str("ticker", s.Ticker).Msg("indicator cache write failed")
			}
			if err := cache.Put(ctx, evKey, s.ExpectedValue); err != nil {
				logger.Debug().Err(err).Str("ticker", s.Ticker).Msg("indicator cache write failed")
			}
		}
		if front != nil {
			if err := front.Put(ctx, winRateKey, s.WinRate); err != nil {
				logger.Debug().Err(err).Str("ticker", s.Ticker).Msg("redis front write failed")
			}
			if err := front.Put(ctx, evKey, s.ExpectedValue); err != nil {
				logger.Debug().Err(err).Str("ticker", s.Ticker).Msg("redis front write failed")
			}
		}
	}
}
