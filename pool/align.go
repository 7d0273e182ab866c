// File: pool/align.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the cache line size of the build target.
const CacheLineSize = int(unsafe.Sizeof(cpu.CacheLinePad{}))

// AlignToCacheLine rounds n up to a multiple of CacheLineSize.
func AlignToCacheLine(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + CacheLineSize - 1) &^ (CacheLineSize - 1)
}

// IsAligned reports whether b starts on a cache line boundary. An empty
// slice is never aligned.
func IsAligned(b []byte) bool {
	if cap(b) == 0 {
		return false
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))%uintptr(CacheLineSize) == 0
}

// alignedSlab allocates size bytes whose first byte is cache-line aligned.
func alignedSlab(size int) []byte {
	raw := make([]byte, size+CacheLineSize)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(unsafe.SliceData(raw))) % uintptr(CacheLineSize)); rem != 0 {
		off = CacheLineSize - rem
	}
	return raw[off : off+size : off+size]
}
