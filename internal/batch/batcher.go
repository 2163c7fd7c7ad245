package batch

import (
	"time"

	"github.com/bft-labs/dexcell/pkg/message"
)

// Batcher accumulates readings until a batch is ready to be sent.
type Batcher interface {
	// Add appends a reading and reports whether the batch is now full.
	Add(msg message.ServiceMessage) bool

	// ShouldSend returns true if the flush interval elapsed with readings pending.
	ShouldSend() bool

	// Batch returns the pending readings in arrival order.
	Batch() []message.ServiceMessage

	// Reset clears the batcher for a new batch.
	Reset()

	// HasPending returns true if there are readings waiting to be sent.
	HasPending() bool
}

// DefaultBatcher flushes on a reading count or a time interval, whichever
// comes first.
type DefaultBatcher struct {
	pending       []message.ServiceMessage
	maxReadings   int
	flushInterval time.Duration
	lastSend      time.Time
	now           func() time.Time
}

// NewDefaultBatcher creates a new batcher. A maxReadings of zero or less
// disables the count trigger.
func NewDefaultBatcher(maxReadings int, flushInterval time.Duration) *DefaultBatcher {
	return newBatcher(maxReadings, flushInterval, time.Now)
}

func newBatcher(maxReadings int, flushInterval time.Duration, now func() time.Time) *DefaultBatcher {
	return &DefaultBatcher{
		maxReadings:   maxReadings,
		flushInterval: flushInterval,
		lastSend:      now(),
		now:           now,
	}
}

// Add appends msg. Returns true once maxReadings are pending.
func (b *DefaultBatcher) Add(msg message.ServiceMessage) bool {
	b.pending = append(b.pending, msg)
	return b.maxReadings > 0 && len(b.pending) >= b.maxReadings
}

// ShouldSend returns true if the batch should be sent based on time.
func (b *DefaultBatcher) ShouldSend() bool {
	if len(b.pending) == 0 {
		return false
	}
	return b.now().Sub(b.lastSend) >= b.flushInterval
}

// Batch returns a copy of the pending readings.
func (b *DefaultBatcher) Batch() []message.ServiceMessage {
	return append([]message.ServiceMessage(nil), b.pending...)
}

// Reset clears the batch and updates the last send time.
func (b *DefaultBatcher) Reset() {
	b.pending = b.pending[:0]
	b.lastSend = b.now()
}

// HasPending returns true if there are readings waiting to be sent.
func (b *DefaultBatcher) HasPending() bool {
	return len(b.pending) > 0
}

// Len returns the number of pending readings.
func (b *DefaultBatcher) Len() int {
	return len(b.pending)
}
