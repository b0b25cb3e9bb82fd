package session

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes state transitions per session without a global
// lock: independent sessions proceed concurrently, but a fallback retry and
// a concurrent end-call on the same session never interleave.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[uuid.UUID]*lockEntry{}}
}

// Lock acquires the per-session lock and returns its unlock function.
func (k *keyedMutex) Lock(id uuid.UUID) func() {
	k.mu.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &lockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
