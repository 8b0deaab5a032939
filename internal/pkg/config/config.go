// Package config reads layered runtime configuration.
package config

import (
	"io"
	"time"
)

// Config defines the typed lookups the application performs on its
// configuration. Implementations return the zero value for missing keys;
// required keys are checked once at startup by the caller.
type Config interface {
	io.Closer

	// IsSet reports whether the key has a value from any source.
	IsSet(key string) bool

	// GetBool retrieves the value of key as a bool.
	GetBool(key string) bool

	// GetString retrieves the value of key as a string.
	GetString(key string) string

	// GetInt retrieves the value of key as an int.
	GetInt(key string) int

	// GetFloat64 retrieves the value of key as a float64.
	GetFloat64(key string) float64

	// GetSecond retrieves an integer value of key interpreted as seconds.
	GetSecond(key string) time.Duration

	// GetArray retrieves the value of key as a slice of strings.
	// A scalar value is split with the format <element1>,<element2>,...
	GetArray(key string) []string
}
