// Package config loads connector settings from a TOML file.
//
// Missing keys keep their defaults, a missing file yields Default(), and the
// ESLOOKUP_URL, ESLOOKUP_INDEX, ESLOOKUP_API_KEY, ESLOOKUP_USERNAME and
// ESLOOKUP_PASSWORD environment variables override the file. Durations are
// written as strings ("250ms", "30s").
//
// Validate returns one ValidationError per bad key so callers can report all
// problems at once. ToOptions, LimiterConfig and HTTPConfig convert the file
// into the values the searcher, limiter and transport take.
package config
