package storage

import "sync"

// KeyedMutex serializes read-modify-write sequences per (domain, key).
// Entries are reference counted and dropped once no goroutine holds or waits
// on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until (domain, key) is free and returns the unlock function.
func (k *KeyedMutex) Lock(domain Domain, key string) func() {
	name := string(domain) + "/" + key

	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[name]
	if !ok {
		l = &keyedLock{}
		k.locks[name] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, name)
		}
		k.mu.Unlock()
	}
}
