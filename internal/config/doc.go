// Package config loads and validates ripple.json, the project configuration
// file for the ripple server.
//
// Load fills a Config with defaults, overlays the file's contents, and
// re-applies defaults to any field the file left empty. Validate checks the
// result; callers should validate before using SessionTTL or the snapshot
// backend selection.
package config
