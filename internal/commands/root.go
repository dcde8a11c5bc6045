package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dshills/marginalia/internal/config"
	"github.com/dshills/marginalia/internal/logging"
)

// NewApp builds the root command with every subcommand registered.
func NewApp(version string) *cli.Command {
	var (
		flags     = &Flags{}
		state     = &State{}
		logCloser func()
	)

	app := &cli.Command{
		Name:      "marginalia",
		Usage:     "Inline suggestion engine developer tool",
		UsageText: "marginalia [global options] command [command options]",
		Description: `Replays recorded host sessions (document edits, focus changes, suggestions
and highlights) against the suggestion engine, and renders pending
suggestions as unified diffs.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error, disabled); overrides config",
				Sources:     cli.EnvVars(config.EnvPrefix + "LOG_LEVEL"),
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars(config.EnvPrefix + "LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file (.toml, .yaml)",
				Sources:     cli.EnvVars(config.EnvPrefix + "CONFIG"),
				Destination: &flags.ConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.LogLevel != "" {
				cfg.Log.Level = flags.LogLevel
			}
			if flags.LogFile != "" {
				cfg.Log.File = flags.LogFile
			}

			logger, closer, err := logging.New(cfg.Log.Level, cfg.Log.File)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			logCloser = closer

			state.Config = cfg
			state.Logger = logger
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = NewReplayCmd(flags, state).Register(app)
	app = NewPatchCmd(flags, state).Register(app)
	app = NewWatchCmd(flags, state).Register(app)

	return app
}
