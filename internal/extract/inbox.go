package extract

import "sync"

// inbox collects callback results from arbitrary goroutines for the single
// collector goroutine. push never blocks; once closed, pushes are dropped.
type inbox struct {
	mu     sync.Mutex
	items  []Result
	closed bool
	notify chan struct{}
}

func newInbox(capacity int) *inbox {
	return &inbox{
		items:  make([]Result, 0, capacity),
		notify: make(chan struct{}, 1),
	}
}

// push enqueues r and reports whether it was accepted.
func (b *inbox) push(r Result) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.items = append(b.items, r)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	return true
}

// drain removes and returns everything queued so far.
func (b *inbox) drain() []Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return nil
	}
	out := b.items
	b.items = nil
	return out
}

// close stops accepting results and returns how many were still queued.
func (b *inbox) close() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	dropped := len(b.items)
	b.items = nil
	return dropped
}
