// Package config loads, normalizes, and validates quill configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for the
// posting API credentials (X_API_KEY and friends) and the Google service
// account key (GOOGLE_APPLICATION_CREDENTIALS). The Config type centralizes
// every knob the poster daemon and operator CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
