// Package config loads, normalizes, and validates clearcart configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CLEARCART_RIGHTS_TOKEN
// environment fallback for the rights-authority credential. Always obtain
// settings through this package so downstream code receives sanitized paths,
// canonical log formats, and clear validation errors.
package config
