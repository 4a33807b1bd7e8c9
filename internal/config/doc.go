// Package config loads, normalizes, and validates wikistream configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WIKISTREAM_DUMP_PATH. The Config type centralizes every knob the extraction
// pipeline and CLI need: dump and output locations, buffer capacities, worker
// pool size, sink fan-out and progress reporting.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
