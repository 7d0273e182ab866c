package pool_test

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-exec/pool"
)

func addr(b []byte) uintptr { return uintptr(unsafe.Pointer(unsafe.SliceData(b))) }

func TestBlockPool_Defaults(t *testing.T) {
	p := pool.NewBlockPool(0, 0)
	assert.Equal(t, pool.DefaultBlockCount, p.Capacity())
	assert.Equal(t, pool.DefaultBlockSize, p.BlockSize())
	assert.Zero(t, p.AllocatedBlocks())
}

func TestBlockPool_Rounding(t *testing.T) {
	p := pool.NewBlockPool(5, 100)
	assert.Equal(t, 8, p.Capacity())
	assert.Equal(t, pool.AlignToCacheLine(100), p.BlockSize())
	assert.Zero(t, p.BlockSize()%pool.CacheLineSize)
}

func TestBlockPool_DistinctThenWrap(t *testing.T) {
	p := pool.NewBlockPool(16, 256)
	seen := make(map[uintptr]bool)
	var first []byte
	for i := 0; i < p.Capacity(); i++ {
		b := p.GetBlock()
		if i == 0 {
			first = b
		}
		require.Len(t, b, 256)
		require.Equal(t, 256, cap(b))
		require.True(t, pool.IsAligned(b), "block %d not aligned", i)
		require.False(t, seen[addr(b)], "block %d handed out twice", i)
		seen[addr(b)] = true
	}
	wrapped := p.GetBlock()
	assert.Equal(t, addr(first), addr(wrapped))
	assert.Equal(t, uint64(17), p.AllocatedBlocks())
}

func TestBlockPool_BlocksDoNotOverlap(t *testing.T) {
	p := pool.NewBlockPool(4, 64)
	a := p.GetBlock()
	b := p.GetBlock()
	for i := range a {
		a[i] = 0xAA
	}
	for i := range b {
		assert.Zero(t, b[i])
	}
	a = append(a, 1)
	assert.NotEqual(t, addr(a), addr(b), "append must reallocate, not spill")
}

func TestBlockPool_ConcurrentGet(t *testing.T) {
	p := pool.NewBlockPool(64, 128)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				b := p.GetBlock()
				if len(b) != 128 {
					t.Errorf("unexpected block length %d", len(b))
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(8000), p.AllocatedBlocks())
}

func TestAlignToCacheLine(t *testing.T) {
	assert.Equal(t, 0, pool.AlignToCacheLine(0))
	assert.Equal(t, pool.CacheLineSize, pool.AlignToCacheLine(1))
	assert.Equal(t, pool.CacheLineSize, pool.AlignToCacheLine(pool.CacheLineSize))
	assert.Equal(t, 2*pool.CacheLineSize, pool.AlignToCacheLine(pool.CacheLineSize+1))
	assert.False(t, pool.IsAligned(nil))
}
