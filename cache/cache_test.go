package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache[K comparable, V any](ttl time.Duration, max int) (*Cache[K, V], *fakeClock) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	c := New[K, V](ttl, max)
	c.now = clk.now
	return c, clk
}

func TestCache_InsertGet(t *testing.T) {
	c := New[string, string](time.Minute, 10)
	c.Insert("key1", "value1")

	v, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "value1", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	c, clk := newTestCache[string, int](100*time.Millisecond, 0)
	c.Insert("a", 1)
	c.InsertWithTTL("forever", 2, 0)

	clk.advance(150 * time.Millisecond)
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.PurgeExpired())
	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictsOldestInserted(t *testing.T) {
	c := New[int, string](0, 2)
	c.Insert(1, "one")
	c.Insert(2, "two")
	assert.Equal(t, 2, c.Len())

	c.Insert(3, "three")
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(1)
	assert.False(t, ok)
	v, _ := c.Get(2)
	assert.Equal(t, "two", v)
	v, _ = c.Get(3)
	assert.Equal(t, "three", v)
}

func TestCache_ReinsertRefreshesOrder(t *testing.T) {
	c := New[int, int](0, 2)
	c.Insert(1, 10)
	c.Insert(2, 20)
	c.Insert(1, 11) // 1 is now the newest
	c.Insert(3, 30)

	_, ok := c.Get(2)
	assert.False(t, ok, "2 was the oldest insert")
	v, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 11, v)
}

func TestCache_RemoveAndClear(t *testing.T) {
	c := New[string, int](0, 0)
	c.Insert("a", 1)
	c.Insert("b", 2)

	v, ok := c.Remove("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = c.Remove("a")
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCache_StaleRecordsAreCompacted(t *testing.T) {
	c := New[int, int](0, 4)
	for i := 0; i < 1000; i++ {
		c.Insert(i%2, i)
	}
	assert.Equal(t, 2, c.Len())
	assert.LessOrEqual(t, c.order.Length(), 2*c.Len()+17)
}

func TestCache_SetTTL(t *testing.T) {
	c, clk := newTestCache[string, int](0, 0)
	c.Insert("old", 1)
	c.SetTTL(time.Second)
	assert.Equal(t, time.Second, c.TTL())
	c.Insert("new", 2)

	clk.advance(2 * time.Second)
	_, ok := c.Get("old")
	assert.True(t, ok, "entries inserted before SetTTL keep their expiry")
	_, ok = c.Get("new")
	assert.False(t, ok)
}

func TestCache_GetOrCompute(t *testing.T) {
	c := New[string, bool](time.Minute, 0)
	calls := 0
	eval := func() bool { calls++; return true }

	assert.True(t, c.GetOrCompute("rule", eval))
	assert.True(t, c.GetOrCompute("rule", func() bool { calls++; return false }))
	assert.Equal(t, 1, calls)
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int, int](time.Minute, 128)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				k := (g*2000 + i) % 300
				c.Insert(k, i)
				c.Get(k)
				if i%50 == 0 {
					c.PurgeExpired()
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 128)
}
