// Package events carries progress updates from the service layer to whatever
// views are currently open (the SSE stream, for now).
package events

import (
	"hifz/tracker/internal/domain"
	"sync"

	"go.uber.org/zap"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

// Bus is an in-process publish/subscribe channel for domain.ProgressUpdate.
// Publishers never block: a subscriber that falls behind misses updates.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
	buffer int
	logger *zap.Logger
}

type subscription struct {
	userID string // empty subscribes to everyone
	ch     chan domain.ProgressUpdate
}

// NewBus creates a Bus with the given per-subscriber buffer.
func NewBus(buffer int, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subs:   make(map[uint64]*subscription),
		buffer: buffer,
		logger: logger,
	}
}

// Publish delivers u to every matching subscriber.
func (b *Bus) Publish(u domain.ProgressUpdate) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs {
		if sub.userID != "" && sub.userID != u.UserID {
			continue
		}
		select {
		case sub.ch <- u:
		default:
			b.logger.Debug("dropping progress update for slow subscriber",
				zap.Uint64("subscription", id), zap.String("userId", u.UserID))
		}
	}
}

// Subscribe registers for updates of userID (or all users when empty). The
// returned cancel func unregisters and closes the channel; it is safe to call
// more than once.
func (b *Bus) Subscribe(userID string) (<-chan domain.ProgressUpdate, func()) {
	sub := &subscription{userID: userID, ch: make(chan domain.ProgressUpdate, b.buffer)}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(sub.ch)
			b.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
