package wreckit

import "sync"

// itemLocks tracks which item ids have a phase in flight.
type itemLocks struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newItemLocks() *itemLocks {
	return &itemLocks{running: make(map[string]struct{})}
}

// tryLock claims id. The returned func releases it; ok is false when id is
// already claimed.
func (l *itemLocks) tryLock(id string) (unlock func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.running[id]; busy {
		return nil, false
	}
	l.running[id] = struct{}{}

	return func() {
		l.mu.Lock()
		delete(l.running, id)
		l.mu.Unlock()
	}, true
}
