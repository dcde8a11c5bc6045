package commands

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dshills/marginalia/internal/config"
	"github.com/dshills/marginalia/internal/engine"
	"github.com/dshills/marginalia/internal/logging"
	"github.com/dshills/marginalia/internal/metrics"
	"github.com/dshills/marginalia/internal/replay"
)

// Flags holds the global flags shared by every command.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
}

// State is filled in by the root command's Before hook.
type State struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
}

// engineOptions builds engine options from the loaded configuration. A
// fresh collector is registered per call when metrics are enabled, so the
// registry must be new for every engine.
func (s *State) engineOptions(cfg *config.Config) []engine.Option {
	opts := []engine.Option{
		engine.FromConfig(cfg),
		engine.WithLogger(logging.Component(s.Logger, "engine")),
	}
	if cfg.Metrics.Enabled {
		s.Registry = prometheus.NewRegistry()
		opts = append(opts, engine.WithMetrics(metrics.NewCollector(s.Registry, cfg.Metrics.Namespace)))
	}
	return opts
}

func (s *State) player() *replay.Player {
	return replay.NewPlayer(replay.WithLogger(logging.Component(s.Logger, "replay")))
}
