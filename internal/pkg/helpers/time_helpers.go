package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// ExpiresAt returns when something stamped at t stops being valid after ttl,
// or nil when t is nil.
func ExpiresAt(t *time.Time, ttl time.Duration) *time.Time {
	if t == nil {
		return nil
	}
	e := t.Add(ttl)
	return &e
}
