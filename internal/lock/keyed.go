// Package lock serializes work per user inside one process.
package lock

import (
	"context"
	"sync"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Keyed hands out one mutex per user. Entries are dropped once nobody holds or waits for them.
type Keyed struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[int64]*entry)}
}

// Lock blocks until the user's mutex is free or ctx is done. The returned
// function releases the mutex and must be called exactly once.
func (k *Keyed) Lock(ctx context.Context, user int64) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[user]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.entries[user] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(user, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			k.release(user, e)
		})
	}, nil
}

func (k *Keyed) release(user int64, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(k.entries, user)
	}
}

func (k *Keyed) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
