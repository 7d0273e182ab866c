// File: core/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package concurrency is the CPU-bound task scheduler of hioload-exec.
//
// An Executor owns a fixed set of workers, each a goroutine locked to its OS
// thread. Submit distributes tasks round-robin into per-worker lock-free
// inboxes and falls back to a shared unbounded lock-free overflow queue.
// Workers move inbox tasks into their bounded work-stealing Deque, pop it
// LIFO, and when idle steal FIFO from siblings. Idle workers spin, yield and
// finally sleep for a bounded time, so shutdown latency stays small.
//
// Task panics are recovered at the execution boundary and counted; they never
// stop a worker. Shutdown discards queued tasks, so a successfully submitted
// task usually, but not always, runs.
package concurrency
