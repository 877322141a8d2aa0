// Package api
// Author: momentics
//
// Executor abstracts the host-level multi-component runtime: it ticks
// every ready component's servant loop, mirroring the teacher's
// NUMA-aware worker pool but dispatching component ticks instead of
// arbitrary NUMA-pinned tasks.

package api

// Executor abstracts parallel task and custom eventloop execution.
type Executor interface {
    // Submit schedules task for execution.
    Submit(task func()) error

    // NumWorkers returns current number of active worker routines.
    NumWorkers() int

    // Resize adjusts the concurrency at runtime.
    Resize(newCount int)
}
