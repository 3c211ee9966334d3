package events

import "sync"

// Bus is a bounded in-memory queue drained by the dispatch worker. When the
// queue is full the oldest event is dropped; quotation state is the source
// of truth, events are only a nudge.
type Bus struct {
	mu    sync.Mutex
	queue []Event
	max   int
}

const defaultMaxQueue = 1024

func NewBus() *Bus {
	return &Bus{max: defaultMaxQueue}
}

func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) >= b.max {
		b.queue = b.queue[1:]
	}
	b.queue = append(b.queue, e)
}

// Drain removes and returns up to max pending events, oldest first.
func (b *Bus) Drain(max int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return nil
	}
	n := len(b.queue)
	if max > 0 && max < n {
		n = max
	}
	out := make([]Event, n)
	copy(out, b.queue[:n])
	b.queue = b.queue[n:]
	return out
}

// Pending reports the queue depth.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
