package practice

import (
	"context"
	"sync"
)

// Locker serializes wizard steps for one practice id. The returned release
// function must be called once the step is saved.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// KeyedMutex serializes work per practice id so a double-submitted form
// cannot advance the same wizard twice at once. It only covers one process;
// RedisStore provides the shared lock for several replicas.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty lock table
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the unlock function
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Acquire implements Locker. The in-process lock never fails.
func (k *KeyedMutex) Acquire(_ context.Context, key string) (func(), error) {
	return k.Lock(key), nil
}
