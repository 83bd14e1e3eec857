package engine

import "sync"

// userLocks serializes the limit-check-and-update window per user. Locks are
// created on first use and kept for the process lifetime; the set of users
// is small enough that reclaiming them is not worth the bookkeeping.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for a user id and returns its release func.
func (ul *userLocks) lock(userID string) func() {
	ul.mu.Lock()
	l, ok := ul.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		ul.locks[userID] = l
	}
	ul.mu.Unlock()

	l.Lock()
	return l.Unlock
}
