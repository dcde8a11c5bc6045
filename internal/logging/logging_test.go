package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "marginalia.log")

	logger, closer, err := New("info", path)
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("k", "v").Msg("shown")
	closer()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"shown"`)
	assert.Contains(t, string(data), `"k":"v"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marginalia.log")

	for _, msg := range []string{"first", "second"} {
		logger, closer, err := New("info", path)
		require.NoError(t, err)
		logger.Info().Msg(msg)
		closer()
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), "second")
}

func TestNewBadLevel(t *testing.T) {
	_, closer, err := New("chatty", "")
	assert.Error(t, err)
	assert.NotPanics(t, closer)
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewWithWriter(zerolog.DebugLevel, &buf), "engine")

	logger.Debug().Msg("hi")
	assert.Contains(t, buf.String(), `"component":"engine"`)
	assert.Contains(t, buf.String(), `"time":`)
}
