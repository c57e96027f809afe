package platform

import (
	"sync"

	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// Ensure Broadcaster implements the interface.
var _ driven.Notifier = (*Broadcaster)(nil)

// Change is a sync state change delivered to subscribers.
type Change struct {
	NewContent bool
}

// subscriberBuffer is the channel capacity of each subscriber.
const subscriberBuffer = 16

// Broadcaster fans state changes out to subscribers. A subscriber that does
// not keep up loses changes rather than blocking the sync lane.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// NewBroadcaster creates a broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Change)}
}

// Subscribe returns a channel of changes and the function that cancels the
// subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Change, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// StateChanged delivers a change to every subscriber without blocking.
func (b *Broadcaster) StateChanged(newContent bool) {
	logger.Debug("sync state changed (new content: %t)", newContent)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- Change{NewContent: newContent}:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
