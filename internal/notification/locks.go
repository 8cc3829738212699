package notification

import "sync"

// Locks is a keyed mutex: one lock per notification identifier, released
// from memory when no goroutine holds or waits for it.
type Locks struct {
	mu sync.Mutex
	m  map[int32]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocks creates an empty keyed mutex.
func NewLocks() *Locks {
	return &Locks{m: make(map[int32]*keyLock)}
}

// Lock acquires the lock for id and returns its release function.
func (l *Locks) Lock(id int32) func() {
	l.mu.Lock()
	k, ok := l.m[id]
	if !ok {
		k = &keyLock{}
		l.m[id] = k
	}
	k.refs++
	l.mu.Unlock()

	k.mu.Lock()
	return func() {
		k.mu.Unlock()
		l.mu.Lock()
		k.refs--
		if k.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

func (l *Locks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
