package service

import (
	"fmt"
	"sync"
)

// slotLocks serializes writers per (room, date) inside this process.
// Entries are dropped once no goroutine holds or waits on them.
type slotLocks struct {
	mu    sync.Mutex
	locks map[string]*slotLock
}

type slotLock struct {
	mu   sync.Mutex
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{locks: make(map[string]*slotLock)}
}

// Lock blocks until the (roomID, date) lock is held and returns its release func.
func (l *slotLocks) Lock(roomID int64, date string) func() {
	key := fmt.Sprintf("%d|%s", roomID, date)

	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &slotLock{}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *slotLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
