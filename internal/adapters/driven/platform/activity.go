package platform

import (
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

// Ensure ActivityCounter implements the interface.
var _ driven.ActivityTracker = (*ActivityCounter)(nil)

// ActivityCounter counts foreground observers such as an attached terminal
// session. The zero value is ready to use.
type ActivityCounter struct {
	count atomic.Int64
}

// Open registers an observer and returns the function that unregisters it.
// The returned function is idempotent.
func (a *ActivityCounter) Open() (closeFn func()) {
	a.count.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { a.count.Add(-1) })
	}
}

// ActiveCount returns the number of open observers.
func (a *ActivityCounter) ActiveCount() int {
	return int(a.count.Load())
}
