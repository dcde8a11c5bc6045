// Package config loads marginalia configuration.
//
// Configuration is layered, lowest precedence first:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension
//  3. MARGINALIA_* environment variables
//
// The result is validated before it is returned. Example file:
//
//	[log]
//	level = "debug"
//
//	[engine]
//	invalidation = "collapse"
//	patch_context = 5
//
//	[metrics]
//	enabled = true
//
// Supported environment overrides:
//
//	MARGINALIA_LOG_LEVEL        log.level
//	MARGINALIA_LOG_FILE         log.file
//	MARGINALIA_INVALIDATION     engine.invalidation
//	MARGINALIA_METRICS_ENABLED  metrics.enabled
//
// Other MARGINALIA_SECTION_KEY variables map to section.key by convention.
// The watcher subpackage reloads the file when it changes.
package config
