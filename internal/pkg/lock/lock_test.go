package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func (kl *KeyLock[K]) size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.locks)
}

// hold takes the lock for key on another goroutine and keeps it until the
// returned func is called.
func hold[K comparable](t *testing.T, kl *KeyLock[K], key K) func() {
	t.Helper()
	held := make(chan struct{})
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_ = kl.WithLockContext(context.Background(), key, func() error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	return func() {
		close(done)
		<-finished
	}
}

// Concurrent read-modify-write under the key lock matches sequential execution.
func TestKeyLockSerialisesProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		numOps := rapid.IntRange(2, 30).Draw(rt, "numOps")
		step := rapid.IntRange(1, 100).Draw(rt, "step")
		key := rapid.StringMatching(`[0-9]{5,12}`).Draw(rt, "key")

		kl := New[string]()
		counter := 0

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = kl.WithLockContext(context.Background(), key, func() error {
					counter += step
					return nil
				})
			}()
		}
		wg.Wait()

		if counter != numOps*step {
			rt.Fatalf("counter %d, want %d", counter, numOps*step)
		}
		if kl.size() != 0 {
			rt.Fatalf("expected no idle entries, got %d", kl.size())
		}
	})
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	kl := New[string]()
	unlock := hold(t, kl, "111111")
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	called := false
	require.NoError(t, kl.WithLockContext(ctx, "222222", func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestKeyLock_WithLockContextTimeout(t *testing.T) {
	kl := New[int64]()
	unlock := hold(t, kl, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := kl.WithLockContext(ctx, 1, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, called)

	unlock()

	require.Eventually(t, func() bool { return kl.size() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, kl.WithLockContext(context.Background(), 1, func() error { return nil }))
}

func TestKeyLock_ReturnsCallbackError(t *testing.T) {
	kl := New[string]()
	want := assert.AnError
	err := kl.WithLockContext(context.Background(), "k", func() error { return want })
	assert.ErrorIs(t, err, want)
	assert.Zero(t, kl.size())
}
