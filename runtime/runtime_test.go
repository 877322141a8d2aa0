// File: runtime/runtime_test.go
package runtime

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/tizonia/omxcore/api"
)

type countingPoller struct {
	pending atomic.Int64
	handled atomic.Int64
}

func (p *countingPoller) Poll(maxEvents int) (int, error) {
	n := 0
	for n < maxEvents && p.pending.Load() > 0 {
		p.pending.Add(-1)
		p.handled.Add(1)
		n++
	}
	return n, nil
}
func (p *countingPoller) Register(h api.Handler) error   { return nil }
func (p *countingPoller) Unregister(h api.Handler) error { return nil }
func (p *countingPoller) Stop()                          {}
func (p *countingPoller) Push(ev api.Event) bool         { p.pending.Add(1); return true }

func TestRuntimeDrivesRegisteredComponents(t *testing.T) {
	rt := New(2)
	defer rt.Stop()

	p := &countingPoller{}
	p.pending.Store(10)
	rt.Register(api.NewHandle(), p)

	rt.Run()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.handled.Load() == 10 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected 10 handled, got %d", p.handled.Load())
}

func TestExecutorSubmitAfterClose(t *testing.T) {
	e := NewExecutor(1)
	e.Close()
	if err := e.Submit(func() {}); err != ErrExecutorClosed {
		t.Fatalf("expected ErrExecutorClosed, got %v", err)
	}
}
