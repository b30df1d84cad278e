package recur

import (
	"sync"

	"github.com/xraph/recur/id"
)

// addressLocks serializes operations per subscription address. A charge
// and a cancel racing on the same subscription must observe each other's
// writes; operations on different subscriptions proceed concurrently.
type addressLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAddressLocks() *addressLocks {
	return &addressLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// acquire locks the mutex for addr, creating it on first use, and
// returns the unlock function.
func (a *addressLocks) acquire(addr id.Address) func() {
	key := addr.String()

	a.mu.Lock()
	m, ok := a.locks[key]
	if !ok {
		m = &sync.Mutex{}
		a.locks[key] = m
	}
	a.mu.Unlock()

	m.Lock()
	return m.Unlock
}
