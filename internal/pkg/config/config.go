// Package config exposes typed read access to runtime configuration.
// Values are addressed by dotted keys ("modules.auth.otp_ttl_minutes")
// and every getter returns the zero value when the key is absent or
// the value does not convert, so callers never branch on lookup errors.
package config

import (
	"io"
	"time"
)

// Config is the read surface handed to modules. Implementations own
// the source (file, bytes) and any reload mechanics behind it.
type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool

	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetSecond and GetMinute read a bare integer and apply the unit,
	// keeping the config file free of duration syntax.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary reads a base64-encoded value, nil when undecodable.
	GetBinary(key string) []byte

	// GetArray reads a comma-separated value as a string slice.
	GetArray(key string) []string
}
