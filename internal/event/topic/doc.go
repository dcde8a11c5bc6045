// Package topic provides hierarchical topic names and wildcard matching for
// the notification bus.
//
// Topics use dot notation:
//
//	suggestions.changed
//	suggestions.resolved
//	edit.applied
//
// Two wildcards are supported in subscription patterns:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	suggestions.*    matches suggestions.changed, suggestions.resolved
//	*.changed        matches beacon.changed, highlights.changed
//	**               matches everything
package topic
