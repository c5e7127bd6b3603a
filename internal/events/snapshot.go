package events

import (
	"sync"
	"time"
)

// Option is a selectable currency decorated with its display asset.
type Option struct {
	Code string `json:"code"`
	Icon string `json:"icon,omitempty"`
}

// SwapSnapshot is a read-only view of the swap session for rendering
// surfaces. Monetary fields are strings to avoid float precision issues
// when consumed by web/UI layers.
type SwapSnapshot struct {
	Timestamp    time.Time         `json:"ts"`
	Options      []Option          `json:"options"`
	Source       string            `json:"source"`
	Target       string            `json:"target"`
	Amount       string            `json:"amount"`
	Quote        string            `json:"quote"`
	Insufficient bool              `json:"insufficient"`
	Status       string            `json:"status"`
	Message      string            `json:"message,omitempty"`
	Balances     map[string]string `json:"balances"`
}

// SnapshotBroadcaster fans out snapshots to all subscribers via buffered
// channels. It keeps the API intentionally small so call sites can stay
// straightforward.
type SnapshotBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan SwapSnapshot]struct{}
	buffer int
}

// NewSnapshotBroadcaster creates a broadcaster with the given
// per-subscriber buffer.
func NewSnapshotBroadcaster(buffer int) *SnapshotBroadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &SnapshotBroadcaster{
		subs:   make(map[chan SwapSnapshot]struct{}),
		buffer: buffer,
	}
}

// Publish sends the snapshot to all subscribers, dropping if a reader is slow.
func (b *SnapshotBroadcaster) Publish(s SwapSnapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives snapshots until Unsubscribe is called.
func (b *SnapshotBroadcaster) Subscribe() chan SwapSnapshot {
	ch := make(chan SwapSnapshot, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *SnapshotBroadcaster) Unsubscribe(ch chan SwapSnapshot) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
