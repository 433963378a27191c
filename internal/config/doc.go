// Package config loads, normalizes, and validates vpxmerge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GITHUB_TOKEN and the VPXMERGE_* overrides. The Config type centralizes the
// table, ROM, PuP and music directories together with the matching, feed and
// patch repository settings so the CLI discovers everything in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
