package enrich

import "sync"

// Tracker is a mutex-guarded set of show ids with work in flight.
type Tracker struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{ids: make(map[int64]struct{})}
}

// Acquire adds id and reports whether it was absent.
func (t *Tracker) Acquire(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.ids[id]; ok {
		return false
	}
	t.ids[id] = struct{}{}
	return true
}

// Release removes id.
func (t *Tracker) Release(id int64) {
	t.mu.Lock()
	delete(t.ids, id)
	t.mu.Unlock()
}

// Has reports whether id is in flight.
func (t *Tracker) Has(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ids[id]
	return ok
}

// Len returns the number of ids in flight.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}
