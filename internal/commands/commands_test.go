package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/marginalia/internal/engine"
	"github.com/dshills/marginalia/internal/engine/buffer"
	"github.com/dshills/marginalia/internal/engine/highlight"
	"github.com/dshills/marginalia/internal/engine/suggest"
)

var storyScript = filepath.Join("..", "replay", "testdata", "story.yaml")

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := NewApp("test")
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(context.Background(), append([]string{"marginalia", "--log-level", "disabled"}, args...))
	return out.String(), err
}

func TestReplayCommand(t *testing.T) {
	out, err := runApp(t, "replay", storyScript)
	require.NoError(t, err)

	assert.Contains(t, out, `text: "The fat cat sat.\n"`)
	assert.Contains(t, out, "beacon: 16")
	assert.Regexp(t, `s1\s+replace\s+\[8:11\)`, out)
	assert.Contains(t, out, "HIGHLIGHT")
}

func TestReplayCommandDump(t *testing.T) {
	out, err := runApp(t, "replay", "--dump", storyScript)
	require.NoError(t, err)

	assert.Contains(t, out, "Snapshot{")
	assert.Contains(t, out, `ProposedText: "dog"`)
}

func TestReplayCommandFailingStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("document: abc\nsteps:\n  - expect: {text: xyz}\n"), 0o644))

	out, err := runApp(t, "replay", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (expect)")
	assert.Contains(t, out, `text: "abc"`)
}

func TestReplayCommandMissingArg(t *testing.T) {
	_, err := runApp(t, "replay")
	assert.EqualError(t, err, "missing script path")
}

func TestPatchCommand(t *testing.T) {
	out, err := runApp(t, "patch", "--context", "0", "--name", "story.txt", storyScript)
	require.NoError(t, err)

	assert.Contains(t, out, "--- a/story.txt\n+++ b/story.txt\n")
	assert.Contains(t, out, "-The fat cat sat.\n+The fat dog sat.\n")
}

func TestPatchCommandUsesConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "marginalia.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[engine]\ninvalidation = \"collapse\"\npatch_context = 1\n"), 0o644))

	_, err := runApp(t, "--config", cfgPath, "patch", storyScript)
	assert.NoError(t, err)

	require.NoError(t, os.WriteFile(cfgPath, []byte("[engine]\npatch_context = -4\n"), 0o644))
	_, err = runApp(t, "--config", cfgPath, "patch", storyScript)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestWatchRequiresConfig(t *testing.T) {
	_, err := runApp(t, "watch", storyScript)
	assert.EqualError(t, err, "watch requires --config")
}

func TestWriteSummaryEmpty(t *testing.T) {
	var out bytes.Buffer
	writeSummary(&out, engine.Snapshot{Text: "x"})
	assert.Equal(t, "version: v0\ntext: \"x\"\nbeacon: none\n", out.String())
}

func TestWriteSummary(t *testing.T) {
	var out bytes.Buffer
	writeSummary(&out, engine.Snapshot{
		Text:      "hello",
		Version:   3,
		Beacon:    2,
		BeaconSet: true,
		Pending: []suggest.Suggestion{{
			ID: "a", Kind: suggest.KindAdd, Range: buffer.NewRange(5, 5), ProposedText: "!",
		}},
		Highlights: []highlight.Highlight{{Range: buffer.NewRange(0, 5), Tag: "greeting"}},
	})

	s := out.String()
	assert.Contains(t, s, "beacon: 2\n")
	assert.Regexp(t, `a\s+add\s+\[5:5\)\s+""\s+"!"`, s)
	assert.Contains(t, s, "greeting")
}
