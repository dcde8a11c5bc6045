package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dshills/marginalia/internal/engine"
	"github.com/dshills/marginalia/internal/replay"
)

// PatchCmd replays a script and prints the pending suggestions as a diff.
type PatchCmd struct {
	flags *Flags
	state *State

	// flags
	context int
	name    string
}

// NewPatchCmd creates a new patch command
func NewPatchCmd(flags *Flags, state *State) *PatchCmd {
	return &PatchCmd{flags: flags, state: state}
}

// Register adds the patch command to the application
func (cmd *PatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "patch",
		Usage:     "Print pending suggestions as a unified diff",
		UsageText: "marginalia patch [--context n] [--name file] <script.yaml>",
		Description: `Replays the script, then renders what accepting every pending suggestion
would do to the final text. Suggestions overlapping an earlier one are left
out and listed on stderr.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "context",
				Usage:       "lines of context around each change (default from config)",
				Value:       -1,
				Destination: &cmd.context,
			},
			&cli.StringFlag{
				Name:        "name",
				Usage:       "file name shown in the diff header",
				Destination: &cmd.name,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *PatchCmd) run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("missing script path")
	}

	script, err := replay.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}

	opts := cmd.state.engineOptions(cmd.state.Config)
	if cmd.context >= 0 {
		opts = append(opts, engine.WithPatchContext(cmd.context))
	}

	eng, err := cmd.state.player().Run(ctx, script, opts...)
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	res, err := eng.ExportPatch(cmd.name)
	if err != nil {
		return fmt.Errorf("export patch: %w", err)
	}

	for _, id := range res.Skipped {
		fmt.Fprintf(os.Stderr, "skipped overlapping suggestion %s\n", id)
	}

	_, err = c.Root().Writer.Write(res.Diff)
	return err
}
