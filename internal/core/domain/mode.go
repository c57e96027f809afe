package domain

import (
	"fmt"
	"time"
)

// ActivationMode decides which newly received stories may be surfaced to an
// open view without disturbing its list and pager offsets.
type ActivationMode int

// Activation modes.
const (
	// ActivateAll surfaces every received story.
	ActivateAll ActivationMode = iota
	// ActivateOlder surfaces only stories at or before the cutoff.
	ActivateOlder
	// ActivateNewer surfaces only stories at or after the cutoff.
	ActivateNewer
)

// String implements fmt.Stringer.
func (m ActivationMode) String() string {
	switch m {
	case ActivateAll:
		return "all"
	case ActivateOlder:
		return "older"
	case ActivateNewer:
		return "newer"
	default:
		return fmt.Sprintf("ActivationMode(%d)", int(m))
	}
}

// ParseActivationMode parses the String form of a mode.
func ParseActivationMode(s string) (ActivationMode, error) {
	switch s {
	case "", "all":
		return ActivateAll, nil
	case "older":
		return ActivateOlder, nil
	case "newer":
		return ActivateNewer, nil
	default:
		return ActivateAll, fmt.Errorf("%w: unknown activation mode %q", ErrInvalidInput, s)
	}
}

// Activates reports whether a story published at ts may be surfaced under
// this mode and cutoff.
func (m ActivationMode) Activates(ts, cutoff time.Time) bool {
	switch m {
	case ActivateOlder:
		return !ts.After(cutoff)
	case ActivateNewer:
		return !ts.Before(cutoff)
	default:
		return true
	}
}
