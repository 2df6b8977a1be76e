package archive

import (
	"sync"
	"time"

	"gameapi/pkg/consumer"
)

// Pending pairs an archive row with the message it came from, so the
// offset can be committed once the row is safely written.
type Pending struct {
	Row     SessionRow
	Message consumer.Message
}

// Buffer accumulates pending rows until a size or time threshold is met
type Buffer struct {
	mu        sync.Mutex
	pending   []Pending
	capacity  int
	lastFlush time.Time
}

// NewBuffer creates a Buffer that signals a flush at capacity
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		pending:   make([]Pending, 0, capacity),
		capacity:  capacity,
		lastFlush: time.Now(),
	}
}

// Add appends a pending row. Returns true once the buffer reaches capacity.
func (b *Buffer) Add(p Pending) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, p)
	return len(b.pending) >= b.capacity
}

// Drain returns the buffered rows and resets the buffer
func (b *Buffer) Drain() []Pending {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.pending
	b.pending = make([]Pending, 0, b.capacity)
	b.lastFlush = time.Now()
	return batch
}

// Size returns the current number of buffered rows
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Stale reports whether a non-empty buffer has waited at least interval
// since the last drain
func (b *Buffer) Stale(interval time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return false
	}
	return time.Since(b.lastFlush) >= interval
}
