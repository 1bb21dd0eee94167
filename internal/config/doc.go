// Package config loads, normalizes, and validates ClipForge configuration
// from TOML with environment fallbacks for connection secrets.
package config
