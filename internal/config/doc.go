// Package config loads, normalizes, and validates ytmeta configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// JELLYFIN_API_KEY and YTMETA_CACHE_DIR. Always obtain settings through this
// package so downstream code receives expanded paths and clear validation
// errors.
package config
