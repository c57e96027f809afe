package services

import (
	"sync"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// ActivationPolicy holds the activation mode set by the UI. Stories are
// inserted under the mode in force when their page arrives.
type ActivationPolicy struct {
	mu     sync.RWMutex
	mode   domain.ActivationMode
	cutoff time.Time
}

// Set replaces the mode and cutoff.
func (p *ActivationPolicy) Set(mode domain.ActivationMode, cutoff time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = mode
	p.cutoff = cutoff
}

// Get returns the mode and cutoff.
func (p *ActivationPolicy) Get() (domain.ActivationMode, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode, p.cutoff
}

// Unrestricted reports whether every received story may be surfaced.
func (p *ActivationPolicy) Unrestricted() bool {
	mode, _ := p.Get()
	return mode == domain.ActivateAll
}
