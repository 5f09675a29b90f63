// Package logging constructs the slog loggers used by the daemon and CLI.
//
// Two handler formats are supported: "console" for human-readable terminal
// output (colorized when stdout is a TTY) and "json" for structured log
// files. Level strings are parsed leniently; unknown values fall back to
// info.
package logging
