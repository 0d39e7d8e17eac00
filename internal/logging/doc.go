// Package logging assembles the structured slog loggers shared by the desktop
// host, the CLI and the core packages.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers so components tag their lines with a
// consistent "component" key. A no-op logger is provided for tests and for
// wiring code that runs before configuration is loaded.
package logging
