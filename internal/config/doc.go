// Package config loads, normalizes, and validates danmusync configuration.
//
// It supplies repository defaults, expands tilde paths, reads TOML files, and
// honours the EMBY_SERVER_URL / EMBY_API_KEY environment fallbacks so a bare
// deployment can run without a config file. Always obtain settings through
// this package so downstream code receives sanitized paths and clear
// validation errors.
package config
