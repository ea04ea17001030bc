// Package lock provides per-key mutual exclusion, used to serialise
// operations on one buyer's records without blocking other buyers.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrLockTimeout is returned when the context ends before the lock is acquired.
var ErrLockTimeout = errors.New("lock acquisition timeout")

// keyMutex wraps a mutex with the number of goroutines holding or waiting
// for it, so idle entries can be dropped.
type keyMutex struct {
	mu       sync.Mutex
	refCount int
}

// KeyLock hands out one mutex per key. Entries are removed once no
// goroutine holds or waits for them.
type KeyLock[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*keyMutex
}

// New creates a new KeyLock instance.
func New[K comparable]() *KeyLock[K] {
	return &KeyLock[K]{locks: make(map[K]*keyMutex)}
}

func (kl *KeyLock[K]) acquire(key K) *keyMutex {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	m, ok := kl.locks[key]
	if !ok {
		m = &keyMutex{}
		kl.locks[key] = m
	}
	m.refCount++
	return m
}

func (kl *KeyLock[K]) release(key K) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	m, ok := kl.locks[key]
	if !ok {
		return
	}
	m.refCount--
	if m.refCount <= 0 {
		delete(kl.locks, key)
	}
}

// WithLockContext executes fn while holding the lock for key. It gives up
// with ErrLockTimeout if ctx ends before the lock is acquired.
func (kl *KeyLock[K]) WithLockContext(ctx context.Context, key K, fn func() error) error {
	m := kl.acquire(key)

	acquired := make(chan struct{})
	go func() {
		m.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// The waiter still gets the mutex eventually and must hand it back.
		go func() {
			<-acquired
			m.mu.Unlock()
			kl.release(key)
		}()
		return ErrLockTimeout
	}

	defer func() {
		m.mu.Unlock()
		kl.release(key)
	}()
	return fn()
}
