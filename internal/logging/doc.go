// Package logging builds slog loggers with ClipForge conventions: text or
// JSON output, multi-destination writers, standardized field names, and
// context-derived job/stage/correlation attributes.
package logging
