// Package config loads, normalizes, and validates Stylus configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AUDD_API_TOKEN, ACOUSTID_API_KEY, and MALOJA_API_KEY. The Config type
// centralizes every knob the daemon and CLI need so capture geometry,
// detection thresholds, and backend credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
