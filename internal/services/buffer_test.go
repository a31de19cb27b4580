package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
)

func ev(id string) models.Event {
	return models.Event{EventType: "test", SubjectID: id, Timestamp: "2025-01-01T00:00:00Z"}
}

func TestBufferEnqueueDrain(t *testing.T) {
	b := NewBuffer(100)

	assert.Equal(t, 1, b.Enqueue(ev("a")))
	assert.Equal(t, 2, b.Enqueue(ev("b")))
	assert.Equal(t, 2, b.Len())

	batch := b.Drain()
	require.Len(t, batch, 2)
	assert.Equal(t, "a", batch[0].SubjectID)
	assert.Equal(t, "b", batch[1].SubjectID)
	assert.Equal(t, 0, b.Len())
}

func TestBufferDrainEmptyIsIdempotent(t *testing.T) {
	b := NewBuffer(100)
	assert.Empty(t, b.Drain())
	assert.Empty(t, b.Drain())
}

func TestBufferNoLossNoDuplication(t *testing.T) {
	const producers = 8
	const perProducer = 200

	b := NewBuffer(0)
	var wg sync.WaitGroup
	seen := make(map[string]int)
	var seenMu sync.Mutex

	collect := func(batch []models.Event) {
		seenMu.Lock()
		for _, e := range batch {
			seen[e.SubjectID]++
		}
		seenMu.Unlock()
	}

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				b.Enqueue(ev(fmt.Sprintf("p%d-%d", p, i)))
				if i%17 == 0 {
					collect(b.Drain())
				}
			}
		}(p)
	}
	wg.Wait()
	collect(b.Drain())

	require.Len(t, seen, producers*perProducer)
	for id, n := range seen {
		assert.Equalf(t, 1, n, "record %s delivered %d times", id, n)
	}
}

func TestBufferRequeueGoesAheadOfNewRecords(t *testing.T) {
	b := NewBuffer(100)
	b.Enqueue(ev("old"))
	failed := b.Drain()

	b.Enqueue(ev("new"))
	b.Requeue(failed)

	batch := b.Drain()
	require.Len(t, batch, 2)
	assert.Equal(t, "old", batch[0].SubjectID)
	assert.Equal(t, "new", batch[1].SubjectID)
}

func TestBufferOverflowDropsOldest(t *testing.T) {
	b := NewBuffer(3)
	for i := 0; i < 5; i++ {
		b.Enqueue(ev(fmt.Sprintf("e%d", i)))
	}

	assert.Equal(t, uint64(2), b.Dropped())
	batch := b.Drain()
	require.Len(t, batch, 3)
	assert.Equal(t, "e2", batch[0].SubjectID)
	assert.Equal(t, "e4", batch[2].SubjectID)
}
