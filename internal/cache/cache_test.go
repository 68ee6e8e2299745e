package cache

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errComputeFailed = errors.New("compute failed")

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "history", Key("history"))
	assert.Equal(t, "history:results/cg/strong.json", Key("history", "results/cg/strong.json"))
	assert.Equal(t, "results:cg:main", Key("results", "cg", "main"))
}

func TestCache_GetSet(t *testing.T) {
	t.Parallel()

	cache := New[string]()

	key := Key("results", "cg")

	// Initially not found.
	val, found := cache.Get(key)
	assert.False(t, found)
	assert.Empty(t, val)

	// Set and get.
	cache.Set(key, "test-value")

	val, found = cache.Get(key)
	assert.True(t, found)
	assert.Equal(t, "test-value", val)
}

func TestCache_GetOrCompute(t *testing.T) {
	t.Parallel()

	cache := New[int]()

	key := Key("history", "results/cg/strong.json")
	computeCount := 0

	compute := func() (int, error) {
		computeCount++

		return 42, nil
	}

	// First call computes.
	val, err := cache.GetOrCompute(key, compute)
	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 1, computeCount)

	// Second call uses cache.
	val, err = cache.GetOrCompute(key, compute)
	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 1, computeCount) // Not incremented.
}

func TestCache_GetOrCompute_Error(t *testing.T) {
	t.Parallel()

	cache := New[int]()

	key := Key("history", "missing.json")
	expectedErr := errComputeFailed

	compute := func() (int, error) {
		return 0, expectedErr
	}

	val, err := cache.GetOrCompute(key, compute)
	require.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, val)

	// Value should not be cached on error.
	_, found := cache.Get(key)
	assert.False(t, found)
}

func TestCache_Len(t *testing.T) {
	t.Parallel()

	cache := New[string]()

	assert.Equal(t, 0, cache.Len())

	cache.Set("a", "1")
	assert.Equal(t, 1, cache.Len())

	cache.Set("b", "2")
	assert.Equal(t, 2, cache.Len())

	// Overwrite doesn't change len.
	cache.Set("a", "3")
	assert.Equal(t, 2, cache.Len())
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	cache := New[string]()

	cache.Set("a", "1")
	cache.Set("b", "2")
	assert.Equal(t, 2, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())

	_, found := cache.Get("a")
	assert.False(t, found)
}

func TestCache_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	cache := New[int]()

	cache.Set("a", 1)
	cache.Set("b", 2)

	snapshot := cache.Snapshot()

	// Later writes don't show up in the snapshot.
	cache.Set("c", 3)
	assert.Len(t, snapshot, 2)
	assert.Equal(t, 1, snapshot["a"])
	assert.Equal(t, 2, snapshot["b"])
}

func TestCache_Restore(t *testing.T) {
	t.Parallel()

	cache := New[int]()

	cache.Set("a", 1)
	cache.Set("b", 2)

	restored := New[int]()
	restored.Restore(cache.Snapshot())

	assert.Equal(t, 2, restored.Len())

	val, found := restored.Get("a")
	assert.True(t, found)
	assert.Equal(t, 1, val)

	val, found = restored.Get("b")
	assert.True(t, found)
	assert.Equal(t, 2, val)
}

func TestCache_RestoreReplaces(t *testing.T) {
	t.Parallel()

	cache := New[int]()

	cache.Set("stale", 1)

	cache.Restore(map[string]int{"fresh": 2})

	assert.Equal(t, 1, cache.Len())

	_, found := cache.Get("stale")
	assert.False(t, found)

	val, found := cache.Get("fresh")
	assert.True(t, found)
	assert.Equal(t, 2, val)
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	cache := New[int]()

	var wg sync.WaitGroup

	// Concurrent writes.
	for i := range 100 {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			cache.Set(strconv.Itoa(i), i)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 100, cache.Len())

	// Concurrent reads.
	for i := range 100 {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			val, found := cache.Get(strconv.Itoa(i))
			assert.True(t, found)
			assert.Equal(t, i, val)
		}(i)
	}

	wg.Wait()
}
