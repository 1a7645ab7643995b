package booking

import (
	"sort"
	"sync"
)

// resourceLocks serializes check-then-insert sequences per key. The
// conflict check and the insert are not atomic against the store, so
// without this two concurrent requests for the same resource could both
// pass the check before either commits.
type resourceLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newResourceLocks() *resourceLocks {
	return &resourceLocks{locks: make(map[string]*refLock)}
}

// Acquire locks every key (in sorted order, so two callers can never
// deadlock on overlapping key sets) and returns the release function.
func (l *resourceLocks) Acquire(keys ...string) (release func()) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	entries := make([]*refLock, 0, len(sorted))
	for _, key := range sorted {
		l.mu.Lock()
		entry, ok := l.locks[key]
		if !ok {
			entry = &refLock{}
			l.locks[key] = entry
		}
		entry.refs++
		l.mu.Unlock()

		entry.mu.Lock()
		entries = append(entries, entry)
	}

	released := sorted
	return func() {
		for i := len(entries) - 1; i >= 0; i-- {
			entries[i].mu.Unlock()

			l.mu.Lock()
			entry := entries[i]
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, released[i])
			}
			l.mu.Unlock()
		}
	}
}
