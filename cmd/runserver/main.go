// cmd/runserver serves the read-only run-log query API (internal/api)
// over HTTP+WS: config load, logging init, signal-driven shutdown,
// then the single read-only service this engine exposes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"position-signal-engine/config"
	"position-signal-engine/internal/api"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to engine config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 1
	}
	if !cfg.Server.Enabled {
		fmt.Fprintln(os.Stderr, "server.enabled is false, nothing to run")
		return 1
	}

	logger := config.NewLogger(cfg.Logging)
	hub := api.NewProgressHub()
	server := api.NewServer(cfg, hub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutting down run-log query service")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return 1
	}
	return 0
}
