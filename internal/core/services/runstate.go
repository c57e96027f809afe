package services

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Phase is a step of a sync run that is reported in status.
type Phase int

// Phases, in status priority order.
const (
	PhaseVacuum Phase = iota
	PhaseActions
	PhaseMetadata
	PhaseCleanup
	PhaseStories
	numPhases
)

var phaseNames = [numPhases]string{
	PhaseVacuum:   "vacuum",
	PhaseActions:  "actions",
	PhaseMetadata: "metadata",
	PhaseCleanup:  "cleanup",
	PhaseStories:  "stories",
}

var phaseMessages = [numPhases]string{
	PhaseVacuum:   "Tidying up . . .",
	PhaseActions:  "Catching up reading actions . . .",
	PhaseMetadata: "Syncing feeds . . .",
	PhaseCleanup:  "Cleaning up storage . . .",
	PhaseStories:  "Syncing stories . . .",
}

// String returns the phase name.
func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Companions groups the optional companion services of a sync run.
type Companions struct {
	Unreads driven.UnreadService
	Text    driven.CompanionService
	Images  driven.CompanionService
}

// RunState holds the phase flags of the sync run. It is written by the sync
// lane and read by any number of status observers.
type RunState struct {
	companions Companions

	mu        sync.RWMutex
	phases    [numPhases]bool
	memoryLow bool
}

// NewRunState creates an idle run state.
func NewRunState(companions Companions) *RunState {
	return &RunState{companions: companions}
}

// Enter sets a phase flag and returns a function that clears it.
func (s *RunState) Enter(p Phase) func() {
	s.Set(p, true)
	return func() { s.Set(p, false) }
}

// Set sets or clears a phase flag.
func (s *RunState) Set(p Phase, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases[p] = running
}

// Running reports whether a phase flag is set.
func (s *RunState) Running(p Phase) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phases[p]
}

// SetMemoryLow records a low-memory signal.
func (s *RunState) SetMemoryLow(low bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memoryLow = low
}

// MemoryLow reports whether the last memory signal was severe.
func (s *RunState) MemoryLow() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memoryLow
}

// IsBusy reports whether any phase or companion service is working.
func (s *RunState) IsBusy() bool {
	s.mu.RLock()
	for _, running := range s.phases {
		if running {
			s.mu.RUnlock()
			return true
		}
	}
	s.mu.RUnlock()

	for _, c := range s.companionList() {
		if c.Running() {
			return true
		}
	}
	return false
}

// StatusMessage describes the highest priority activity. ok is false when
// nothing is running.
func (s *RunState) StatusMessage() (string, bool) {
	s.mu.RLock()
	for p, running := range s.phases {
		if running {
			s.mu.RUnlock()
			return phaseMessages[p], true
		}
	}
	s.mu.RUnlock()

	if c := s.companions.Unreads; c != nil && c.Running() {
		return fmt.Sprintf("Syncing %d unread stories . . .", c.PendingCount()), true
	}
	if c := s.companions.Text; c != nil && c.Running() {
		return fmt.Sprintf("Syncing text for %d stories . . .", c.PendingCount()), true
	}
	if c := s.companions.Images; c != nil && c.Running() {
		return fmt.Sprintf("Caching %d images . . .", c.PendingCount()), true
	}
	return "", false
}

func (s *RunState) companionList() []driven.CompanionService {
	list := make([]driven.CompanionService, 0, 3)
	if s.companions.Unreads != nil {
		list = append(list, s.companions.Unreads)
	}
	if s.companions.Text != nil {
		list = append(list, s.companions.Text)
	}
	if s.companions.Images != nil {
		list = append(list, s.companions.Images)
	}
	return list
}
