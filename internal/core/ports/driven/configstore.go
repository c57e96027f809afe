package driven

import "time"

// ConfigStore is the key/value store behind the sync preferences. Keys use
// dot notation ("sync.offline_enabled"); typed getters return the zero value
// for missing keys and for values of the wrong type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetDuration accepts a Go duration string ("15m") or a number of
	// seconds.
	GetDuration(key string) time.Duration

	// GetTime accepts a datetime value or an RFC 3339 string. The result
	// is in UTC.
	GetTime(key string) time.Time

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Delete removes values and persists immediately. Missing keys are
	// ignored.
	Delete(keys ...string) error

	// Load replaces the in-memory values with the persisted ones.
	Load() error
}
