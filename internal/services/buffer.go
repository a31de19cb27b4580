package services

import (
	"sync"

	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
)

// Buffer is the in-memory queue of events awaiting a bulk write. The mutex
// guards only the slice mutation; callers perform I/O outside it. Beyond
// maxPending the oldest records are dropped and counted, which bounds
// memory during a sustained backend outage.
type Buffer struct {
	mu         sync.Mutex
	records    []models.Event
	maxPending int
	dropped    uint64
}

// NewBuffer creates a buffer capped at maxPending records.
func NewBuffer(maxPending int) *Buffer {
	if maxPending <= 0 {
		maxPending = 5000
	}
	return &Buffer{maxPending: maxPending}
}

// Enqueue appends one record and returns the new length.
func (b *Buffer) Enqueue(ev models.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, ev)
	b.trimLocked()
	return len(b.records)
}

// EnqueueAll appends a batch and returns the new length.
func (b *Buffer) EnqueueAll(evs []models.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, evs...)
	b.trimLocked()
	return len(b.records)
}

// Drain atomically removes and returns everything queued. Draining an
// empty buffer returns nil.
func (b *Buffer) Drain() []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.records
	b.records = nil
	return out
}

// Requeue puts a failed batch back ahead of anything enqueued since the
// drain. Order across repeated requeues is not guaranteed.
func (b *Buffer) Requeue(evs []models.Event) {
	if len(evs) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	merged := make([]models.Event, 0, len(evs)+len(b.records))
	merged = append(merged, evs...)
	merged = append(merged, b.records...)
	b.records = merged
	b.trimLocked()
}

// Len returns the number of pending records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Dropped returns how many records were discarded to the overflow cap.
func (b *Buffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Buffer) trimLocked() {
	if len(b.records) <= b.maxPending {
		return
	}
	drop := len(b.records) - b.maxPending
	b.dropped += uint64(drop)
	b.records = b.records[drop:]
}
