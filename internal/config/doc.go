// Package config loads, normalizes, and validates RevoStream configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and overlays secrets from .env files and the
// REVOSTREAM_* environment variables. The Config type centralizes every knob
// the daemon and CLI need: engine startup parameters, the default recording
// destination, the streaming endpoint, and journal settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
