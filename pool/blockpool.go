// File: pool/blockpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Round-robin pool of fixed-size aligned memory blocks.

package pool

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-exec/api"
)

const (
	DefaultBlockCount = 1024
	DefaultBlockSize  = 4096
)

var _ api.BlockPool = (*BlockPool)(nil)

// BlockPool is a fixed set of equally sized blocks carved from one backing
// allocation. GetBlock is safe for concurrent use.
type BlockPool struct {
	_         cpu.CacheLinePad
	counter   atomic.Uint64
	_         cpu.CacheLinePad
	mask      uint64
	blockSize int
	slab      []byte
}

// NewBlockPool allocates blocks*blockSize bytes. The block count is rounded
// up to a power of two (<= 0 means DefaultBlockCount) and the block size up
// to a multiple of CacheLineSize (<= 0 means DefaultBlockSize).
func NewBlockPool(blocks, blockSize int) *BlockPool {
	if blocks <= 0 {
		blocks = DefaultBlockCount
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	n := 1
	for n < blocks {
		n <<= 1
	}
	blockSize = AlignToCacheLine(blockSize)
	return &BlockPool{
		mask:      uint64(n - 1),
		blockSize: blockSize,
		slab:      alignedSlab(n * blockSize),
	}
}

// GetBlock returns the next block in round-robin order. The slice has
// len == cap == BlockSize, so appending never spills into a neighbour.
// Its contents are whatever the previous holder left.
func (p *BlockPool) GetBlock() []byte {
	i := int((p.counter.Add(1) - 1) & p.mask)
	off := i * p.blockSize
	return p.slab[off : off+p.blockSize : off+p.blockSize]
}

// Capacity returns the number of blocks.
func (p *BlockPool) Capacity() int {
	return int(p.mask + 1)
}

// BlockSize returns the size of each block in bytes.
func (p *BlockPool) BlockSize() int {
	return p.blockSize
}

// AllocatedBlocks returns how many blocks have been handed out over the
// pool's lifetime.
func (p *BlockPool) AllocatedBlocks() uint64 {
	return p.counter.Load()
}
