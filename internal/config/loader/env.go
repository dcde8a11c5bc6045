package loader

import (
	"os"
	"strings"
)

// EnvLoader gathers prefixed environment variables as config overrides.
// Names in the explicit table map to their listed path; any other
// prefixed name maps by convention, first underscore to a dot:
// MARGINALIA_ENGINE_PATCH_CONTEXT is "engine.patch_context".
type EnvLoader struct {
	prefix   string
	explicit map[string]string
}

// NewEnvLoader takes the prefix with its trailing underscore.
func NewEnvLoader(prefix string, explicit map[string]string) *EnvLoader {
	return &EnvLoader{prefix: prefix, explicit: explicit}
}

// Load returns path -> raw value. A variable set to "" is still an override.
func (l *EnvLoader) Load() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		if path, ok := l.explicit[name]; ok {
			out[path] = value
		} else if rest, ok := strings.CutPrefix(name, l.prefix); ok && rest != "" {
			out[strings.Replace(strings.ToLower(rest), "_", ".", 1)] = value
		}
	}
	return out
}
