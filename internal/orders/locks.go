package orders

import (
	"sort"
	"sync"
)

// keyedMutex serializes work per aggregate id. Multi-key acquisition
// always locks in sorted order so two operations touching the same
// pair of aggregates cannot deadlock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*sync.Mutex{}}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// lockAll acquires every key (deduplicated, sorted) and returns the
// matching unlock function.
func (k *keyedMutex) lockAll(keys ...string) func() {
	uniq := map[string]struct{}{}
	for _, key := range keys {
		uniq[key] = struct{}{}
	}
	ordered := make([]string, 0, len(uniq))
	for key := range uniq {
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, key := range ordered {
		m := k.get(key)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
