// File: pool/doc.go
// Package pool
// Author: momentics <momentics@gmail.com>
//
// Size-classed buffer pooling, batching, and ring-buffer primitives
// backing component buffer headers (api.BufferHeader) and the
// servant's internal queues. No NUMA or OS-specific allocation: a
// component's buffer headers are ordinary heap slices recycled by
// size class, matching the host-process model of this runtime.
package pool
