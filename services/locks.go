package services

import (
	"sort"
	"sync"
)

// EntityLocks serializes mutations per entity id. Operations on
// different ids proceed in parallel; two operations on the same id take
// turns, which is what makes the last-slot join race resolve to exactly
// one winner.
type EntityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEntityLocks() *EntityLocks {
	return &EntityLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *EntityLocks) get(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// Lock acquires the lock for one id and returns the unlock func.
func (l *EntityLocks) Lock(id string) func() {
	m := l.get(id)
	m.Lock()
	return m.Unlock
}

// LockAll acquires locks for a set of ids in ascending order, which is
// the deadlock-avoidance rule for settlements touching several users.
func (l *EntityLocks) LockAll(ids []string) func() {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Strings(unique)

	acquired := make([]*sync.Mutex, 0, len(unique))
	for _, id := range unique {
		m := l.get(id)
		m.Lock()
		acquired = append(acquired, m)
	}

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}
