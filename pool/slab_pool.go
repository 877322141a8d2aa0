// File: pool/slab_pool.go
// Package pool implements lock-free slab allocation with size class support.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync/atomic"

	"github.com/tizonia/omxcore/api"
)

// slabPool: fixed-size buffer allocation per size class, recycled
// through a bounded ring buffer instead of per-buffer GC churn.
type slabPool struct {
	size    int
	newBuf  func(size int) api.Buffer
	release func(api.Buffer)

	ring *RingBuffer[api.Buffer]

	totalAlloc atomic.Uint64
	totalFree  atomic.Uint64
}

const defaultPoolCapacity = 4096

func newSlabPool(size int) *slabPool {
	return &slabPool{
		size: size,
		ring: NewRingBuffer[api.Buffer](defaultPoolCapacity),
		newBuf: func(size int) api.Buffer {
			return api.Buffer{Data: make([]byte, size), Class: size}
		},
	}
}

func (sp *slabPool) Get(_ int) api.Buffer {
	if buf, ok := sp.ring.Dequeue(); ok {
		return buf.Slice(0, sp.size)
	}

	buf := sp.newBuf(sp.size)
	buf.Pool = sp
	buf.Class = sp.size

	sp.totalAlloc.Add(1)
	return buf
}

func (sp *slabPool) Put(buf api.Buffer) {
	if sp.ring.Enqueue(buf) {
		sp.totalFree.Add(1)
		return
	}
	if sp.release != nil {
		sp.release(buf)
	}
}

func (sp *slabPool) Stats() api.BufferPoolStats {
	totalAlloc := int64(sp.totalAlloc.Load())
	totalFree := int64(sp.totalFree.Load())
	return api.BufferPoolStats{
		TotalAlloc: totalAlloc,
		TotalFree:  totalFree,
		InUse:      totalAlloc - totalFree,
	}
}

var _ api.BufferPool = (*slabPool)(nil)
