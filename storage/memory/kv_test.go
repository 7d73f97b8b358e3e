package memorystore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKVPutTake(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("v"), 0))

	got, ok, err := kv.Take(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)

	_, ok, err = kv.Take(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVTakeMissing(t *testing.T) {
	kv := NewKV()
	_, ok, err := kv.Take(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVExpiry(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := kv.Take(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVGetDoesNotConsume(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("v"), 0))

	_, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, kv.Del(ctx, "k"))
	_, ok, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVPutCopiesValue(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	v := []byte("original")
	require.NoError(t, kv.Put(ctx, "k", v, 0))
	v[0] = 'X'

	got, ok, _ := kv.Take(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("original"), got)
}

func TestKVConcurrentTakeExactlyOnce(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, "k", []byte("v"), 0))

	const racers = 64
	var wg sync.WaitGroup
	var wins int32
	var mu sync.Mutex
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := kv.Take(ctx, "k")
			if err != nil {
				t.Errorf("take: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, wins)
}

func TestKVLenCountsLiveEntries(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, kv.Put(ctx, fmt.Sprintf("live-%d", i), []byte("v"), 0))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, kv.Put(ctx, fmt.Sprintf("dead-%d", i), []byte("v"), time.Millisecond))
	}
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 5, kv.Len())
}

func TestKVReaperSweepsExpired(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "dead", []byte("v"), 10*time.Millisecond))
	require.NoError(t, kv.Put(ctx, "live", []byte("v"), time.Hour))

	require.NoError(t, kv.StartReaper(100*time.Millisecond))
	defer kv.Stop()

	// The sweep must drop the expired entry from the map itself, not
	// just hide it from reads.
	require.Eventually(t, func() bool {
		kv.mu.Lock()
		defer kv.mu.Unlock()
		return len(kv.items) == 1
	}, 2*time.Second, 50*time.Millisecond)

	_, ok, err := kv.Get(ctx, "live")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestKVStopIsIdempotent(t *testing.T) {
	kv := NewKV()
	require.NoError(t, kv.StartReaper(time.Minute))
	kv.Stop()
	kv.Stop()
}
