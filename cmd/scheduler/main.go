// cmd/scheduler runs the engine on a recurring cron schedule instead
// of once per process invocation. Grounded on
// ternarybob-quaero/internal/services/scheduler's robfig/cron-backed
// Service, trimmed to the single recurring job this engine needs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"position-signal-engine/config"
	"position-signal-engine/internal/pipeline"
	"position-signal-engine/internal/report"
	"position-signal-engine/internal/store"
	"position-signal-engine/internal/universe"
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
		return 1
	}
	if !cfg.Schedule.Enabled {
		fmt.Fprintln(os.Stderr, "schedule.enabled is false, nothing to run")
		return 1
	}

	logger := config.NewLogger(cfg.Logging)
	c := cron.New()

	_, err = c.AddFunc(cfg.Schedule.Cron, func() {
		executeOnce(cfg, *universePath, logger)
	})
	if err != nil {
		logger.Error().Err(err).Str("cron", cfg.Schedule.Cron).Msg("invalid cron expression")
		return 1
	}

	logger.Info().Str("cron", cfg.Schedule.Cron).Msg("scheduler starting")
	c.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("scheduler shutting down")
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return 0
}

// executeOnce runs a single engine pass and writes its snapshot, the
// same sequence cmd/engine performs for a one-shot invocation.
func executeOnce(cfg *config.Config, universePath string, logger zerolog.Logger) {
	u, err := universe.Load(universePath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load universe, skipping this tick")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Worker.PerInstrumentBudgetSeconds)*time.Second*time.Duration(len(u.Instruments)+1))
	defer cancel()

	src := pipeline.NewFileDataSource(cfg.DataSource.Dir, cfg.DataSource.RatePerSecond, cfg.DataSource.Burst)
	result, err := pipeline.Run(ctx, cfg, u, src, logger)
	if err != nil {
		logger.Error().Err(err).Msg("scheduled run failed")
		return
	}

	logger.Info().
		Str("run_id", result.RunID).
		Int("surviving", len(result.Setups)).
		Bool("partial", result.Partial).
		Msg("scheduled run complete")

	report.LogWarnings(logger, result.Setups)
	report.LogRejections(logger, result.Rejections)

	snap := store.NewRunSnapshot(time.Now().UTC(), cfg.Digest(), u.Digest(), result.Partial, result.Setups, result.Rejections)
	if _, err := store.WriteSnapshot(cfg.Store.RunLogDir, snap); err != nil {
		logger.Error().Err(err).Msg("failed to write scheduled run snapshot")
	}
}
