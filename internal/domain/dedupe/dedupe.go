// Package dedupe tracks finished game ids so each result reaches the
// leaderboard at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Deduper records seen game IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID so a result that could not be queued can be
	// offered again.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps ids in insertion order. Bounded mode (maxSize > 0)
// evicts the oldest id once full; unbounded mode never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is newest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[id] = d.order.PushFront(id)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, exists := d.seen[id]; exists {
		d.order.Remove(el)
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(string))
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
