package events

import "sync"

// defaultHistory bounds how many records the bus retains for late readers.
const defaultHistory = 1024

// Bus fans emitted events out to subscribers and keeps a bounded history so
// RPC consumers can page through recent records. It satisfies Emitter and is
// safe for concurrent use.
type Bus struct {
	mu      sync.Mutex
	history []*Record
	limit   int
	seq     uint64
	subs    map[uint64]chan *Record
	nextSub uint64
}

// NewBus constructs a bus retaining up to limit records. A non-positive limit
// falls back to the default.
func NewBus(limit int) *Bus {
	if limit <= 0 {
		limit = defaultHistory
	}
	return &Bus{
		limit: limit,
		subs:  make(map[uint64]chan *Record),
	}
}

// Emit implements the Emitter interface. Slow subscribers are skipped rather
// than blocking the emitting operation.
func (b *Bus) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	rec := evt.Event()
	if rec == nil {
		return
	}
	b.mu.Lock()
	b.seq++
	b.history = append(b.history, rec)
	if len(b.history) > b.limit {
		b.history = b.history[len(b.history)-b.limit:]
	}
	for _, ch := range b.subs {
		select {
		case ch <- rec:
		default:
		}
	}
	b.mu.Unlock()
}

// Subscribe registers a new subscriber channel. The returned cancel function
// must be invoked to release the subscription.
func (b *Bus) Subscribe(buffer int) (<-chan *Record, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan *Record, buffer)
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.mu.Unlock()
	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Recent returns up to limit of the most recent records, oldest first.
func (b *Bus) Recent(limit int) []*Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.history) {
		limit = len(b.history)
	}
	out := make([]*Record, limit)
	copy(out, b.history[len(b.history)-limit:])
	return out
}

// Count reports the total number of events emitted through the bus.
func (b *Bus) Count() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}
