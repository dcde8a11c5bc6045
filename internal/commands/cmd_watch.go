package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/dshills/marginalia/internal/config"
	"github.com/dshills/marginalia/internal/config/watcher"
	"github.com/dshills/marginalia/internal/logging"
	"github.com/dshills/marginalia/internal/replay"
)

// WatchCmd replays a script again whenever the configuration file changes.
type WatchCmd struct {
	flags *Flags
	state *State

	// flags
	metricsAddr string

	mu       sync.Mutex
	registry *prometheus.Registry
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags, state *State) *WatchCmd {
	return &WatchCmd{flags: flags, state: state}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Replay a script on every config change",
		UsageText: "marginalia --config file watch [--metrics-addr addr] <script.yaml>",
		Description: `Replays the script once, then again each time the config file is saved, so
invalidation and patch settings can be tuned against a recorded session.

With --metrics-addr, the metrics of the latest run are served at /metrics.
Runs until interrupted.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "metrics-addr",
				Usage:       "serve Prometheus metrics on this address (e.g. :9090)",
				Destination: &cmd.metricsAddr,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("missing script path")
	}
	if cmd.flags.ConfigPath == "" {
		return errors.New("watch requires --config")
	}

	script, err := replay.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}

	logger := logging.Component(cmd.state.Logger, "watch")
	replayOnce := func(cfg *config.Config) {
		if cmd.metricsAddr != "" {
			cfg.Metrics.Enabled = true
		}
		eng, err := cmd.state.player().Run(ctx, script, cmd.state.engineOptions(cfg)...)

		cmd.mu.Lock()
		cmd.registry = cmd.state.Registry
		cmd.mu.Unlock()

		out := c.Root().Writer
		_, _ = fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.TimeOnly))
		writeSummary(out, eng.State())
		if err != nil {
			_, _ = fmt.Fprintf(out, "error: %v\n", err)
		}
	}

	w, err := watcher.New(cmd.flags.ConfigPath, replayOnce,
		watcher.WithDebounce(time.Duration(cmd.state.Config.Watch.DebounceMS)*time.Millisecond),
		watcher.WithLogger(logger),
		watcher.WithErrorHandler(func(err error) {
			logger.Error().Err(err).Msg("config reload failed; keeping previous settings")
		}),
	)
	if err != nil {
		return err
	}

	if cmd.metricsAddr != "" {
		srv := cmd.serveMetrics(logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	replayOnce(cmd.state.Config)
	logger.Info().Str("config", w.Path()).Str("script", path).Msg("watching")

	return w.Run(ctx)
}

func (cmd *WatchCmd) serveMetrics(logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		cmd.mu.Lock()
		reg := cmd.registry
		cmd.mu.Unlock()
		if reg == nil {
			http.Error(rw, "no run yet", http.StatusServiceUnavailable)
			return
		}
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rw, r)
	})

	srv := &http.Server{
		Addr:              cmd.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", cmd.metricsAddr).Msg("metrics server failed")
		}
	}()
	return srv
}
