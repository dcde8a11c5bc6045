package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dshills/marginalia/internal/replay"
)

// ReplayCmd runs a host-event script and prints the resulting state.
type ReplayCmd struct {
	flags *Flags
	state *State

	// flags
	dump bool
}

// NewReplayCmd creates a new replay command
func NewReplayCmd(flags *Flags, state *State) *ReplayCmd {
	return &ReplayCmd{flags: flags, state: state}
}

// Register adds the replay command to the application
func (cmd *ReplayCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "replay",
		Usage:     "Replay a host-event script",
		UsageText: "marginalia replay [--dump] <script.yaml>",
		Description: `Runs every step of the script against a fresh engine and prints the final
text, pending suggestions, beacon and highlights.

When a step fails, the state the run stopped in is printed before the error.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "dump",
				Usage:       "print the full engine snapshot",
				Destination: &cmd.dump,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ReplayCmd) run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("missing script path")
	}

	script, err := replay.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}

	eng, runErr := cmd.state.player().Run(ctx, script, cmd.state.engineOptions(cmd.state.Config)...)

	out := c.Root().Writer
	if cmd.dump {
		writeDump(out, eng.State())
	} else {
		writeSummary(out, eng.State())
	}

	if runErr != nil {
		return fmt.Errorf("replay %s: %w", path, runErr)
	}
	return nil
}
