// File: runtime/runtime.go
// Author: momentics <momentics@gmail.com>
//
// Runtime drives every registered component's servant loop by
// repeatedly submitting Poll(maxEvents) calls to an Executor, adapted
// from the teacher's EventLoop adaptive-backoff drain: when a full
// sweep over all components handles zero messages, the driver
// backs off exponentially up to maxBackoff instead of busy-spinning.

package runtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tizonia/omxcore/api"
)

const defaultMaxEventsPerTick = 64

// Runtime registers component servants (api.Poller) and ticks them
// across a shared worker pool.
type Runtime struct {
	exec      *Executor
	mu        sync.RWMutex
	pollers   map[api.Handle]api.Poller
	quitCh    chan struct{}
	doneCh    chan struct{}
	running   atomic.Bool
	maxEvents int
}

// New creates a Runtime backed by an Executor with numWorkers
// goroutines. numWorkers <= 0 defaults to runtime.NumCPU().
func New(numWorkers int) *Runtime {
	return &Runtime{
		exec:      NewExecutor(numWorkers),
		pollers:   make(map[api.Handle]api.Poller),
		quitCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		maxEvents: defaultMaxEventsPerTick,
	}
}

// Register adds a component's servant to the ticking round-robin.
func (r *Runtime) Register(h api.Handle, p api.Poller) {
	r.mu.Lock()
	r.pollers[h] = p
	r.mu.Unlock()
}

// Unregister removes a component's servant from the round-robin.
func (r *Runtime) Unregister(h api.Handle) {
	r.mu.Lock()
	delete(r.pollers, h)
	r.mu.Unlock()
}

// Run starts the driver loop. It returns immediately; call Stop to
// shut down.
func (r *Runtime) Run() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	go r.drive()
}

func (r *Runtime) drive() {
	defer close(r.doneCh)

	backoff := time.Microsecond
	const maxBackoff = 10 * time.Millisecond
	timer := time.NewTimer(backoff)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-r.quitCh:
			return
		default:
		}

		handled := r.sweep()
		if handled == 0 {
			timer.Reset(backoff)
			select {
			case <-r.quitCh:
				if !timer.Stop() {
					<-timer.C
				}
				return
			case <-timer.C:
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		} else {
			backoff = time.Microsecond
		}
	}
}

// sweep submits one Poll task per registered component to the
// executor and returns the total messages handled across the sweep.
func (r *Runtime) sweep() int {
	r.mu.RLock()
	snapshot := make([]api.Poller, 0, len(r.pollers))
	for _, p := range r.pollers {
		snapshot = append(snapshot, p)
	}
	r.mu.RUnlock()

	if len(snapshot) == 0 {
		return 0
	}

	var total atomic.Int64
	var wg sync.WaitGroup
	for _, p := range snapshot {
		p := p
		wg.Add(1)
		err := r.exec.Submit(func() {
			defer wg.Done()
			n, _ := p.Poll(r.maxEvents)
			total.Add(int64(n))
		})
		if err != nil {
			wg.Done()
		}
	}
	wg.Wait()
	return int(total.Load())
}

// Stop halts the driver loop and closes the underlying executor.
func (r *Runtime) Stop() {
	if r.running.Load() {
		close(r.quitCh)
		<-r.doneCh
	}
	r.exec.Close()
}
