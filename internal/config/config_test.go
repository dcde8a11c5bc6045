package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "marginalia.toml", `
[log]
level = "debug"

[engine]
invalidation = "collapse"
patch_context = 5

[metrics]
enabled = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "collapse", cfg.Engine.Invalidation)
	assert.Equal(t, 5, cfg.Engine.PatchContext)
	assert.Equal(t, "none", cfg.Engine.LineEnding)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "marginalia", cfg.Metrics.Namespace)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "marginalia.yaml", `
engine:
  line_ending: lf
watch:
  enabled: true
  debounce_ms: 250
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lf", cfg.Engine.LineEnding)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 250, cfg.Watch.DebounceMS)
	assert.Equal(t, "overlap", cfg.Engine.Invalidation)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "marginalia.toml", "[log]\nlevel = \"warn\"\n")

	t.Setenv("MARGINALIA_LOG_LEVEL", "ERROR")
	t.Setenv("MARGINALIA_INVALIDATION", "collapse")
	t.Setenv("MARGINALIA_METRICS_ENABLED", "true")
	t.Setenv("MARGINALIA_ENGINE_PATCH_CONTEXT", "1")
	t.Setenv("MARGINALIA_LOG_FILE", "/tmp/marginalia.log")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "/tmp/marginalia.log", cfg.Log.File)
	assert.Equal(t, "collapse", cfg.Engine.Invalidation)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 1, cfg.Engine.PatchContext)
}

func TestLoadEnvTypeError(t *testing.T) {
	t.Setenv("MARGINALIA_METRICS_ENABLED", "sometimes")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	var serr *SettingError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "metrics.enabled", serr.Path)
	assert.Equal(t, "bool", serr.Rule)
}

func TestLoadValidation(t *testing.T) {
	path := writeFile(t, "marginalia.toml", `
[log]
level = "loud"

[engine]
invalidation = "never"
patch_context = -1
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)

	var paths []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var verr *SettingError
		require.True(t, errors.As(e, &verr))
		paths = append(paths, verr.Path)
	}
	assert.ElementsMatch(t, []string{"Log.Level", "Engine.Invalidation", "Engine.PatchContext"}, paths)
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeFile(t, "marginalia.toml", "[engine]\ninvalidaton = \"collapse\"\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("watch.debounce_ms", "500"))
	assert.Equal(t, 500, cfg.Watch.DebounceMS)

	assert.ErrorIs(t, cfg.Set("watch.debounce_ms", "soon"), ErrTypeMismatch)
	assert.ErrorIs(t, cfg.Set("no.such", "x"), ErrSettingNotFound)
}

func TestValidateNamespace(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Namespace = "bad-name"
	assert.ErrorIs(t, cfg.Validate(), ErrValidationFailed)

	cfg.Metrics.Namespace = "good_name2"
	assert.NoError(t, cfg.Validate())
}
