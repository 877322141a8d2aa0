// File: servant/watchers.go
// Author: momentics <momentics@gmail.com>
//
// Watchers registers timer- and IO-driven event sources that feed a
// Servant's queue (spec.md §4.1: io_watcher_init/start/stop/destroy,
// timer_watcher_init/start/restart/stop/destroy). Timers are backed by
// an api.Scheduler; IO readiness is host-supplied: whoever owns the
// file descriptors calls NotifyIO, and nothing in this module does.

package servant

import (
	"sync"

	"github.com/tizonia/omxcore/api"
)

// Watchers owns the timer/IO watcher registry for one Servant.
type Watchers struct {
	mu        sync.Mutex
	sched     api.Scheduler
	servant   *Servant
	nextID    int
	timers    map[int]api.Cancelable
	ioActive  map[int]bool
}

// NewWatchers creates a watcher registry driving s, using sched for
// timer scheduling.
func NewWatchers(s *Servant, sched api.Scheduler) *Watchers {
	return &Watchers{
		sched:    sched,
		servant:  s,
		timers:   make(map[int]api.Cancelable),
		ioActive: make(map[int]bool),
	}
}

// TimerWatcherInit allocates a new timer watcher id; it is inert until
// TimerWatcherStart is called.
func (w *Watchers) TimerWatcherInit() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	return w.nextID
}

// TimerWatcherStart arms the watcher to fire once after delayNanos,
// enqueuing a TimerReadyMsg on the owning Servant.
func (w *Watchers) TimerWatcherStart(id int, delayNanos int64) error {
	c, err := w.sched.Schedule(delayNanos, func() {
		w.servant.Enqueue(Message{Kind: KindTimerReady, TimerReady: &TimerReadyMsg{WatcherID: id}})
	})
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.timers[id] = c
	w.mu.Unlock()
	return nil
}

// TimerWatcherRestart cancels any pending firing and re-arms it.
func (w *Watchers) TimerWatcherRestart(id int, delayNanos int64) error {
	w.TimerWatcherStop(id)
	return w.TimerWatcherStart(id, delayNanos)
}

// TimerWatcherStop cancels a pending firing, if any.
func (w *Watchers) TimerWatcherStop(id int) {
	w.mu.Lock()
	c, ok := w.timers[id]
	delete(w.timers, id)
	w.mu.Unlock()
	if ok {
		_ = c.Cancel()
	}
}

// TimerWatcherDestroy stops and forgets the watcher id.
func (w *Watchers) TimerWatcherDestroy(id int) {
	w.TimerWatcherStop(id)
}

// IOWatcherInit allocates a new IO watcher id; it is inert until
// IOWatcherStart is called.
func (w *Watchers) IOWatcherInit() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	id := w.nextID
	w.ioActive[id] = false
	return id
}

// IOWatcherStart marks the watcher active; the host runtime decides
// when to call NotifyIO for this id.
func (w *Watchers) IOWatcherStart(id int) {
	w.mu.Lock()
	w.ioActive[id] = true
	w.mu.Unlock()
}

// IOWatcherStop marks the watcher inactive; NotifyIO becomes a no-op
// for this id until restarted.
func (w *Watchers) IOWatcherStop(id int) {
	w.mu.Lock()
	w.ioActive[id] = false
	w.mu.Unlock()
}

// IOWatcherDestroy removes the watcher id entirely.
func (w *Watchers) IOWatcherDestroy(id int) {
	w.mu.Lock()
	delete(w.ioActive, id)
	w.mu.Unlock()
}

// NotifyIO enqueues an IOReadyMsg if id is active; called by the host
// runtime when it observes readiness on the underlying descriptor.
func (w *Watchers) NotifyIO(id int, events uint32) {
	w.mu.Lock()
	active := w.ioActive[id]
	w.mu.Unlock()
	if !active {
		return
	}
	w.servant.Enqueue(Message{Kind: KindIOReady, IOReady: &IOReadyMsg{WatcherID: id, Events: events}})
}
