// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It provides
// type-safe access to the settings needed by the tracker, its storage
// backends and the HTTP surface.
package config
