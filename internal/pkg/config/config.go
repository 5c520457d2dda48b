// Package config reads application settings from a YAML file, with optional
// environment overrides and built-in defaults.
package config

import (
	"io"
	"time"
)

// Config is the read-only view of application settings used during wiring.
//
// Missing keys yield the zero value of the requested type; callers that need a
// fallback register it with WithDefaults.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetInt(key string) int
	GetFloat64(key string) float64
	GetString(key string) string

	// GetSecond and GetMinute read an integer and scale it to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetArray reads a YAML sequence or a comma separated string, dropping
	// blank elements.
	GetArray(key string) []string
}
