package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("marketplace.client_id", "app-id"))
	require.NoError(t, store.Set("marketplace.client_id", "other-id"))

	val, ok := store.Get("marketplace.client_id")
	assert.True(t, ok)
	assert.Equal(t, "other-id", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("marketplace.page_size", int64(50)))
	require.NoError(t, store.Set("marketplace.max_retries", 3))
	require.NoError(t, store.Set("sync.scheduler_enabled", true))
	require.NoError(t, store.Set("storage.driver", "sqlite"))
	require.NoError(t, store.Set("tags", []any{"a", 1, "b"}))

	assert.Equal(t, 50, store.GetInt("marketplace.page_size"))
	assert.Equal(t, 3, store.GetInt("marketplace.max_retries"))
	assert.True(t, store.GetBool("sync.scheduler_enabled"))
	assert.Equal(t, "sqlite", store.GetString("storage.driver"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("tags"))

	// Mismatched types read as zero values.
	assert.Equal(t, 0, store.GetInt("storage.driver"))
	assert.Equal(t, "", store.GetString("marketplace.page_size"))
	assert.False(t, store.GetBool("storage.driver"))
	assert.Nil(t, store.GetStringSlice("storage.driver"))
}

func TestConfigStore_KeysSorted(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("sync.order_interval", "15m"))
	require.NoError(t, store.Set("lock.driver", "memory"))

	assert.Equal(t, []string{"lock.driver", "sync.order_interval"}, store.Keys())
}

func TestConfigStore_NoOps(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Watch_NotifiesOnSet(t *testing.T) {
	store := NewConfigStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Wait for the watcher to register.
	require.Eventually(t, func() bool {
		store.mu.RLock()
		defer store.mu.RUnlock()
		return len(store.watchers) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Set("sync.stock_interval", "2h"))

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("onChange was not called")
	}

	cancel()
	require.NoError(t, <-done)

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Empty(t, store.watchers)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("marketplace.page_size", int64(n))
			_ = store.GetInt("marketplace.page_size")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("marketplace.page_size")
	assert.True(t, ok)
}
