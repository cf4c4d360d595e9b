// Package observability builds the simulator's structured logger.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/shipsim/internal/config"
)

// RunInfo identifies one simulator run. Its fields are attached to every log
// line so an engagement log can be matched to the seed that replays it.
type RunInfo struct {
	// Binary names the logger, e.g. "shipsim".
	Binary string
	// Seed is the random seed; 0 means a cryptographic, non-replayable source.
	Seed       uint64
	PlayerShip string
	EnemyShip  string
}

// NewLogger creates a structured logger from the given logging configuration,
// named after run.Binary and carrying the run fields on every entry.
//
// Sampling is disabled.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig, run RunInfo) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.Sampling = nil
	if cfg.Output != "" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}
	zapCfg.InitialFields = map[string]interface{}{
		"seed":       run.Seed,
		"replayable": run.Seed != 0,
	}
	if run.PlayerShip != "" {
		zapCfg.InitialFields["player_ship"] = run.PlayerShip
	}
	if run.EnemyShip != "" {
		zapCfg.InitialFields["enemy_ship"] = run.EnemyShip
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	if run.Binary != "" {
		logger = logger.Named(run.Binary)
	}
	return logger, nil
}
