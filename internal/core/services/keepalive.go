package services

import (
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// NoTrigger is the last-completed trigger id before any run has finished.
const NoTrigger int64 = -1

// KeepAliveGuard is a reference-counted "keep executing" signal shared by the
// sync run and its companion services, plus the cooperative interrupt flag
// every phase polls.
type KeepAliveGuard struct {
	connectivity driven.Connectivity

	mu            sync.Mutex
	count         int
	lastCompleted int64
	onIdle        func(triggerID int64)

	interrupted atomic.Bool
}

// NewKeepAliveGuard creates a guard. connectivity may be nil, in which case
// the network is assumed reachable.
func NewKeepAliveGuard(connectivity driven.Connectivity) *KeepAliveGuard {
	return &KeepAliveGuard{
		connectivity:  connectivity,
		lastCompleted: NoTrigger,
	}
}

// SetIdleHook registers fn to be called whenever the count drops to zero.
// fn is called without the guard's lock held.
func (g *KeepAliveGuard) SetIdleHook(fn func(triggerID int64)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onIdle = fn
}

// Acquire takes a reference.
func (g *KeepAliveGuard) Acquire() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.count++
}

// Release drops a reference taken by Acquire and reports whether the guard
// became idle. On reaching zero triggerID is recorded as the last completed
// run and the idle hook fires. A release without a matching acquire is
// ignored.
func (g *KeepAliveGuard) Release(triggerID int64) bool {
	g.mu.Lock()
	if g.count == 0 {
		g.mu.Unlock()
		logger.Warn("keep-alive released more often than acquired (trigger %d)", triggerID)
		return false
	}
	g.count--
	if g.count > 0 {
		g.mu.Unlock()
		return false
	}
	g.lastCompleted = triggerID
	hook := g.onIdle
	g.mu.Unlock()

	logger.Debug("keep-alive idle after trigger %d", triggerID)
	if hook != nil {
		hook(triggerID)
	}
	return true
}

// Count returns the number of outstanding references.
func (g *KeepAliveGuard) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

// Idle reports whether no reference is held.
func (g *KeepAliveGuard) Idle() bool {
	return g.Count() == 0
}

// LastCompleted returns the trigger id recorded when the guard last became
// idle, or NoTrigger.
func (g *KeepAliveGuard) LastCompleted() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastCompleted
}

// SoftInterrupt asks running phases to stop at their next poll point.
func (g *KeepAliveGuard) SoftInterrupt() {
	if !g.interrupted.Swap(true) {
		logger.Debug("soft interrupt requested")
	}
}

// Resume clears a soft interrupt.
func (g *KeepAliveGuard) Resume() {
	g.interrupted.Store(false)
}

// Interrupted reports whether a soft interrupt is in force.
func (g *KeepAliveGuard) Interrupted() bool {
	return g.interrupted.Load()
}

// ShouldStop reports whether work should stop, either because of an
// interrupt or because the network is unavailable.
func (g *KeepAliveGuard) ShouldStop() bool {
	if g.Interrupted() {
		return true
	}
	return g.connectivity != nil && !g.connectivity.IsOnline()
}
