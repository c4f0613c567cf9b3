// Package config loads and validates settings for consensus runs.
//
// Settings come from compiled-in defaults, optionally overlaid by a TOML
// file. Command line flags are applied on top by the caller before
// Validate is run.
package config
