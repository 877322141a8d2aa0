// File: runtime/doc.go
// Package runtime implements the host-level multi-component executor
// (SPEC_FULL.md §6): a resizable pool of goroutines that round-robins
// Poll(maxEvents) across every registered component servant, adapted
// from the teacher's internal/concurrency Executor. Where the teacher
// pinned worker goroutines to NUMA nodes and dispatched arbitrary
// TaskFunc closures, this runtime dispatches exactly one kind of task:
// ticking a component's api.Poller, so no two workers ever tick the
// same component concurrently.
package runtime
