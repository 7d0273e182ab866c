// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory layer for hioload-exec.
// BlockPool hands out fixed-size, cache-line-aligned scratch blocks carved from
// a single allocation, round-robin and without locks. Blocks are not tracked:
// a block is handed out again after the counter wraps, so callers must treat
// it as short-lived per-task scratch space.
package pool
