// File: pool/objpool.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// SyncPool backs component.Component.msgPool: the ETB/FTB/SendCommand
// hot paths borrow a zeroed servant.Message envelope here instead of
// allocating one per call, the way the teacher's hot-load paths pool
// frame buffers rather than let the GC churn on them.

package pool

import "sync"

// ObjectPool is a generic object pool.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

// SyncPool wraps sync.Pool for generic usage.
type SyncPool[T any] struct {
	pool *sync.Pool
}

// NewSyncPool creates a new SyncPool with a creator function.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	return &SyncPool[T]{
		pool: &sync.Pool{New: func() any { return creator() }},
	}
}

// Get borrows an item from the pool, creating one if it is empty.
func (sp *SyncPool[T]) Get() T {
	return sp.pool.Get().(T)
}

// Put returns obj to the pool for later reuse.
func (sp *SyncPool[T]) Put(obj T) {
	sp.pool.Put(obj)
}
