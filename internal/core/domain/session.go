package domain

import (
	"fmt"
	"time"
)

// Session holds the flags derived from the last successful metadata refresh.
type Session struct {
	// Premium and Staff are nil until the first refresh completes.
	Premium *bool
	Staff   *bool

	// LastFeedCount is the number of feeds written by the last refresh.
	LastFeedCount int

	// LastWriteDuration is how long the last feed/folder write took.
	LastWriteDuration time.Duration
}

// SpeedInfo formats the last refresh telemetry as "<feeds> in <millis>".
func (s Session) SpeedInfo() string {
	return fmt.Sprintf("%d in %d", s.LastFeedCount, s.LastWriteDuration.Milliseconds())
}
