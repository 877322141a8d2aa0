// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
//
// Size-classed BufferPool manager: one slab pool per rounded-up size
// class, shared process-wide by all components.

package pool

import (
	"sync"

	"github.com/tizonia/omxcore/api"
)

// BufferPoolManager provides size-classed api.BufferPool instances.
type BufferPoolManager struct {
	mu    sync.RWMutex
	pools map[int]api.BufferPool // key: size class (rounded-up capacity)
}

// NewBufferPoolManager creates and initializes a new manager.
func NewBufferPoolManager() *BufferPoolManager {
	return &BufferPoolManager{
		pools: make(map[int]api.BufferPool),
	}
}

// sizeClass rounds size up to the next power-of-two boundary, so
// nearby allocation sizes share one slab pool instead of fragmenting.
func sizeClass(size int) int {
	if size <= 0 {
		return 1
	}
	n := 1
	for n < size {
		n <<= 1
	}
	return n
}

// GetPool obtains or creates the slab pool for size's size class.
func (m *BufferPoolManager) GetPool(size int) api.BufferPool {
	class := sizeClass(size)
	m.mu.RLock()
	p, ok := m.pools[class]
	m.mu.RUnlock()
	if ok {
		return p
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pools[class]; ok {
		return p
	}
	p = newSlabPool(class)
	m.pools[class] = p
	return p
}

var (
	defaultOnce sync.Once
	defaultMgr  *BufferPoolManager
)

// DefaultManager returns a process-wide BufferPoolManager so all
// components reuse the same pools instead of fragmenting allocations.
func DefaultManager() *BufferPoolManager {
	defaultOnce.Do(func() {
		defaultMgr = NewBufferPoolManager()
	})
	return defaultMgr
}

// DefaultPool is a shortcut to fetch a pool from the default manager.
func DefaultPool(size int) api.BufferPool {
	return DefaultManager().GetPool(size)
}
