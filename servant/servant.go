// File: servant/servant.go
// Author: momentics <momentics@gmail.com>
//
// Servant is the per-component cooperative event loop (spec.md §4,
// §6), adapted from the teacher's internal/concurrency EventLoop:
// instead of a flat inbox of generic api.Event values dispatched to
// registered handlers, a Servant drains a three-band priority queue
// of Message values into a single Dispatch callback supplied by the
// owning component, so exactly one goroutine ever touches that
// component's kernel/processor/FSM state at a time.

package servant

import (
	"sync"
	"sync/atomic"

	"github.com/tizonia/omxcore/api"
)

// Dispatch processes one drained Message. Owned by the component that
// constructs the Servant; never called concurrently with itself.
type Dispatch func(m Message)

// Servant implements api.Poller.
type Servant struct {
	mu       sync.Mutex
	queue    *priorityQueue
	dispatch Dispatch
	closed   atomic.Bool

	watchers map[int]struct{} // not written by Register/Unregister; watcher ids live in Watchers
	nextID   atomic.Int64
}

// New creates a Servant that hands drained messages to dispatch.
func New(dispatch Dispatch) *Servant {
	return &Servant{
		queue:    newPriorityQueue(),
		dispatch: dispatch,
		watchers: make(map[int]struct{}),
	}
}

// Ensure compile-time compliance with the Poller contract.
var _ api.Poller = (*Servant)(nil)

// Enqueue pushes m onto the appropriate priority band. Returns false
// if the servant has been stopped.
func (s *Servant) Enqueue(m Message) bool {
	if s.closed.Load() {
		return false
	}
	s.mu.Lock()
	s.queue.push(m)
	s.mu.Unlock()
	return true
}

// Push implements api.Poller for generic api.Event payloads, wrapping
// pluggable events injected by a host outside this package.
func (s *Servant) Push(ev api.Event) bool {
	if pe, ok := ev.(api.PluggableEvent); ok {
		return s.Enqueue(Message{Kind: KindPluggableEvent, Pluggable: &pe})
	}
	return false
}

// Poll drains up to maxEvents messages in priority order, dispatching
// each in turn. It never blocks: an empty queue returns immediately
// with handled == 0 (spec.md §5, "tick never blocks").
func (s *Servant) Poll(maxEvents int) (handled int, err error) {
	for i := 0; i < maxEvents; i++ {
		s.mu.Lock()
		m, ok := s.queue.pop()
		s.mu.Unlock()
		if !ok {
			break
		}
		s.dispatch(m)
		handled++
	}
	return handled, nil
}

// Pending reports the total number of queued messages across bands.
func (s *Servant) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// Register is a no-op at the Poller level and records nothing; the
// actual event source (timer/io) is managed by servant.Watchers.
func (s *Servant) Register(h api.Handler) error {
	return nil
}

// Unregister is a no-op at the Poller level; watcher lifecycle is
// owned by servant.Watchers.
func (s *Servant) Unregister(h api.Handler) error {
	return nil
}

// Stop marks the servant closed; further Enqueue/Push calls fail.
func (s *Servant) Stop() {
	s.closed.Store(true)
}
