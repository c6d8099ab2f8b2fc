package locks

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyMutex()

	var counter int64
	var max int64
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := km.WithLock(42, func() error {
				cur := atomic.AddInt64(&counter, 1)
				if cur > atomic.LoadInt64(&max) {
					atomic.StoreInt64(&max, cur)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt64(&counter, -1)
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), max, "at most one holder per key at a time")
}

func TestKeyMutex_IndependentKeysRunConcurrently(t *testing.T) {
	km := NewKeyMutex()

	km.Lock(1)
	defer km.Unlock(1)

	done := make(chan struct{})
	go func() {
		km.Lock(2)
		km.Unlock(2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyMutex_EntryRemovedAfterLastRelease(t *testing.T) {
	km := NewKeyMutex()

	km.Lock(7)
	km.Unlock(7)

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks, "released keys should not linger")
}

func TestKeyMutex_UnlockUnheldPanics(t *testing.T) {
	km := NewKeyMutex()
	assert.Panics(t, func() { km.Unlock(99) })
}
