// Package config loads, normalizes, and validates m4dsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// M4D_ORG and M4D_API_KEY. The Config type centralizes every knob the
// reconciliation drivers and CLI need: input file locations, Media4Display
// API settings and timeouts, spreadsheet column names, and logging.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical token policies, and clear validation errors.
package config
