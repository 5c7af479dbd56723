package cache

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_InsertAndRetrieve(t *testing.T) {
	c := NewCache(10)
	require.NoError(t, c.Insert("A", "valueA", 1))
	require.NoError(t, c.Insert("B", 2, 3))

	v, ok := c.Retrieve("A")
	require.True(t, ok)
	assert.Equal(t, "valueA", v)

	v, ok = c.Retrieve("B")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = c.Retrieve("C")
	assert.False(t, ok)

	assert.Equal(t, 4, c.GetWeight())
	assert.Equal(t, 10, c.GetBudget())
}

func TestCache_DuplicateRejected(t *testing.T) {
	c := NewCache(2)
	require.NoError(t, c.Insert("dupe", "a", 1))
	assert.Equal(t, ErrKeyExists, c.Insert("dupe", "b", 1))

	v, _ := c.Retrieve("dupe")
	assert.Equal(t, "a", v)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	c.SetVerbose(true)
	require.NoError(t, c.Insert("evicted", "valueEvicted", 1))
	require.NoError(t, c.Insert("A", "valueA", 1))
	require.NoError(t, c.Insert("B", "valueB", 1))
	assert.Equal(t, 2, c.GetWeight())

	_, ok := c.Retrieve("evicted")
	assert.False(t, ok)

	_, ok = c.Retrieve("A")
	assert.True(t, ok)
	_, ok = c.Retrieve("B")
	assert.True(t, ok)
}

func TestCache_EvictsLeastRecentlyRetrieved(t *testing.T) {
	c := NewCache(2)
	require.NoError(t, c.Insert("A", "valueA", 1))
	require.NoError(t, c.Insert("B", "valueB", 1))

	// B is now the least recently used entry.
	c.Retrieve("A")
	require.NoError(t, c.Insert("C", "valueC", 1))

	_, ok := c.Retrieve("B")
	assert.False(t, ok)
	_, ok = c.Retrieve("A")
	assert.True(t, ok)
	_, ok = c.Retrieve("C")
	assert.True(t, ok)
}

func TestCache_OverweightEntry(t *testing.T) {
	c := NewCache(2)
	require.NoError(t, c.Insert("A", "valueA", 1))
	require.NoError(t, c.Insert("huge", "valueHuge", 3))

	_, ok := c.Retrieve("huge")
	assert.False(t, ok)
	assert.Equal(t, 0, c.GetWeight())

	require.NoError(t, c.Insert("B", "valueB", 1))
	_, ok = c.Retrieve("B")
	assert.True(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := NewCache(1)
	require.NoError(t, c.Insert("cleared", "valueCleared", 1))
	c.Clear()

	_, ok := c.Retrieve("cleared")
	assert.False(t, ok)
	assert.Equal(t, 0, c.GetWeight())
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache(50)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := strconv.Itoa(i*100 + j)
				_ = c.Insert(key, j, 1)
				c.Retrieve(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.GetWeight())
}
