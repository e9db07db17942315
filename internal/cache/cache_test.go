package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](time.Minute, 0)
	defer c.Close()

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int](time.Minute, 0)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "short", 1, 10*time.Millisecond))
	require.NoError(t, c.Set(ctx, "forever", 2, -1))

	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	require.ErrorIs(t, err, ErrNotFound)

	v, err := c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestMemory_MaxEntries(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[int](0, 2)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	require.NoError(t, c.Set(ctx, "c", 3, 0))
	assert.Equal(t, 2, c.Len())

	v, err := c.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestReadThrough_LoadsOnce(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](time.Minute, 0)
	defer c.Close()
	rt := NewReadThrough[string](c)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "value", nil
	}

	const n = 20
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := rt.GetOrLoad(ctx, "key", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "value", v)
	}

	// cached now, the loader must not run again
	v, err := rt.GetOrLoad(ctx, "key", func(context.Context) (string, error) {
		t.Fatal("loader called on a cache hit")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestReadThrough_LoaderError(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](time.Minute, 0)
	defer c.Close()
	rt := NewReadThrough[string](c)

	boom := errors.New("boom")
	_, err := rt.GetOrLoad(ctx, "key", func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	_, err = c.Get(ctx, "key")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReadThrough_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory[string](time.Minute, 0)
	defer c.Close()
	rt := NewReadThrough[string](c)

	require.NoError(t, c.Set(ctx, "key", "old", 0))
	require.NoError(t, rt.Invalidate(ctx, "key"))

	v, err := rt.GetOrLoad(ctx, "key", func(context.Context) (string, error) { return "new", nil })
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestReadThrough_FirstCallerCancelled(t *testing.T) {
	c := NewMemory[string](time.Minute, 0)
	defer c.Close()
	rt := NewReadThrough[string](c)

	started := make(chan struct{})
	release := make(chan struct{})
	firstLoad := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "https://example.com", nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var resA, resB string
	var errA, errB error

	wg.Add(1)
	go func() {
		defer wg.Done()
		resA, errA = rt.GetOrLoad(ctxA, "abc234", firstLoad)
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		resB, errB = rt.GetOrLoad(context.Background(), "abc234", func(context.Context) (string, error) {
			return "", errors.New("second loader must not run")
		})
	}()

	// let the second caller join the flight before the first one hangs up
	time.Sleep(50 * time.Millisecond)
	cancelA()
	close(release)
	wg.Wait()

	require.NoError(t, errB)
	assert.Equal(t, "https://example.com", resB)
	require.NoError(t, errA)
	assert.Equal(t, "https://example.com", resA)

	cached, err := c.Get(context.Background(), "abc234")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", cached)
}
