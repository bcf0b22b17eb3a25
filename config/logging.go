package config

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide zerolog.Logger from LoggingConfig:
// JSON to stdout when JSONFormat is set (production), a human-readable
// console writer otherwise (local runs). No multi-component tagging —
// this is a single-purpose engine, not a multi-service process.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.JSONFormat {
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()
}
