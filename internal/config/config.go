package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dshills/marginalia/internal/config/loader"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "MARGINALIA_"

// Config is the full marginalia configuration.
type Config struct {
	Log     LogConfig     `toml:"log" yaml:"log"`
	Engine  EngineConfig  `toml:"engine" yaml:"engine"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
	Watch   WatchConfig   `toml:"watch" yaml:"watch"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error, disabled.
	Level string `toml:"level" yaml:"level" validate:"oneof=trace debug info warn error disabled"`

	// File receives JSON log lines; empty means stderr.
	File string `toml:"file" yaml:"file"`
}

// EngineConfig configures suggestion tracking.
type EngineConfig struct {
	// Invalidation is "overlap" or "collapse".
	Invalidation string `toml:"invalidation" yaml:"invalidation" validate:"oneof=overlap collapse"`

	// PatchContext is the number of context lines in exported patches.
	PatchContext int `toml:"patch_context" yaml:"patch_context" validate:"gte=0,lte=100"`

	// LineEnding normalizes inserted text: "none", "lf" or "crlf".
	LineEnding string `toml:"line_ending" yaml:"line_ending" validate:"oneof=none lf crlf"`
}

// MetricsConfig configures Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Namespace string `toml:"namespace" yaml:"namespace" validate:"required,alphanum_underscore"`
}

// WatchConfig configures config hot reload.
type WatchConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`

	// DebounceMS coalesces bursts of file events.
	DebounceMS int `toml:"debounce_ms" yaml:"debounce_ms" validate:"gte=0,lte=60000"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			Invalidation: "overlap",
			PatchContext: 3,
			LineEnding:   "none",
		},
		Metrics: MetricsConfig{
			Namespace: "marginalia",
		},
		Watch: WatchConfig{
			DebounceMS: 100,
		},
	}
}

// envMapping names the supported environment overrides.
func envMapping() map[string]string {
	return map[string]string{
		EnvPrefix + "LOG_LEVEL":       "log.level",
		EnvPrefix + "LOG_FILE":        "log.file",
		EnvPrefix + "INVALIDATION":    "engine.invalidation",
		EnvPrefix + "METRICS_ENABLED": "metrics.enabled",
	}
}

// Load builds a configuration from defaults, the file at path (skipped when
// path is empty), and MARGINALIA_* environment variables, in that order,
// then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loader.LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(loader.NewEnvLoader(EnvPrefix, envMapping()).Load()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(overrides map[string]string) error {
	var errs []error
	for path, val := range overrides {
		if err := c.Set(path, val); err != nil && !errors.Is(err, ErrSettingNotFound) {
			errs = append(errs, fmt.Errorf("env override %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// Set assigns a setting from its string form by dotted path.
func (c *Config) Set(path, value string) error {
	switch path {
	case "log.level":
		c.Log.Level = strings.ToLower(value)
	case "log.file":
		c.Log.File = value
	case "engine.invalidation":
		c.Engine.Invalidation = strings.ToLower(value)
	case "engine.patch_context":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &SettingError{Path: path, Value: value, Rule: "int", Err: ErrTypeMismatch}
		}
		c.Engine.PatchContext = n
	case "engine.line_ending":
		c.Engine.LineEnding = strings.ToLower(value)
	case "metrics.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &SettingError{Path: path, Value: value, Rule: "bool", Err: ErrTypeMismatch}
		}
		c.Metrics.Enabled = b
	case "metrics.namespace":
		c.Metrics.Namespace = value
	case "watch.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &SettingError{Path: path, Value: value, Rule: "bool", Err: ErrTypeMismatch}
		}
		c.Watch.Enabled = b
	case "watch.debounce_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &SettingError{Path: path, Value: value, Rule: "int", Err: ErrTypeMismatch}
		}
		c.Watch.DebounceMS = n
	default:
		return fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("alphanum_underscore", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
				return false
			}
		}
		return true
	})
	return v
}

// Validate checks every field constraint and returns the failures joined,
// each a *SettingError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		errs = append(errs, &SettingError{
			Path:  fieldPath(fe.Namespace()),
			Value: fe.Value(),
			Rule:  rule,
			Err:   ErrValidationFailed,
		})
	}
	return errors.Join(errs...)
}

// fieldPath turns "Config.Engine.PatchContext" into "Engine.PatchContext".
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}
