// Package config exposes typed lookups over the YAML configuration shared by
// the auth client and the mock backend.
package config

import (
	"io"
	"time"
)

// Durations reads integer keys as time spans. The unit is part of the
// method name, so "authflow.otp.window_seconds" is read with GetSecond.
type Durations interface {
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
}

// Config is the read side every module depends on. Missing keys yield the
// zero value of the requested type.
type Config interface {
	io.Closer
	Durations

	GetBool(key string) bool
	GetInt(key string) int
	GetUint(key string) uint
	GetFloat64(key string) float64
	GetString(key string) string

	// GetArray accepts a YAML sequence or a comma separated string.
	// Elements are trimmed and empty ones dropped.
	GetArray(key string) []string

	// GetMap accepts a YAML mapping or "k:v,k:v" pairs. Only the first
	// colon of a pair separates key from value.
	GetMap(key string) map[string]string
}
