// Package config loads, normalizes, validates and persists the TOML
// configuration shared by the desktop app and the reaperfx CLI.
//
// Values missing from the file fall back to defaults and selected environment
// variables; path fields are expanded to absolute paths during normalization.
package config
