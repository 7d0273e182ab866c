// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines abstract pooling APIs for per-task scratch memory.

package api

// BlockPool hands out fixed-size scratch blocks round-robin.
type BlockPool interface {
	// GetBlock returns the next block. Blocks are reused after the pool
	// wraps around; nothing tracks whether a block is still in use.
	GetBlock() []byte

	// Capacity returns the number of blocks.
	Capacity() int

	// BlockSize returns the size of each block in bytes.
	BlockSize() int
}
