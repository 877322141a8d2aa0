// File: component/component_test.go
package component

import (
	"testing"

	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/fsm"
	"github.com/tizonia/omxcore/port"
	"github.com/tizonia/omxcore/processor"
)

// echoProcessor claims whatever lands in ingress and immediately hands
// it back out on the same port, the simplest possible pass-through
// Processor for exercising the full ClaimBuffer/ReleaseBuffer path.
type echoProcessor struct {
	processor.Base
	claims int
}

func (p *echoProcessor) BuffersReady() api.ErrorType {
	hdr, errc := p.Kernel.ClaimBuffer(0, 0)
	if errc != api.ErrorNone {
		return errc
	}
	p.claims++
	return p.Kernel.ReleaseBuffer(0, hdr)
}

func newEchoComponent(cb api.Callbacks) (*Component, *echoProcessor, *port.Port) {
	p := port.New(0, api.DirInput, api.DomainOther, nil)
	p.BufferCount = 1
	p.Flags.Enabled = true

	var proc *echoProcessor
	c := New([]*port.Port{p},
		WithProcessor(func(k processor.KernelAPI) processor.Processor {
			proc = &echoProcessor{Base: processor.Base{Kernel: k}}
			return proc
		}),
		WithCallbacks(cb),
		WithStrictConservationChecks(),
	)
	return c, proc, p
}

func TestComponentLifecycleAndBufferFlow(t *testing.T) {
	var emptyDone int
	cb := api.Callbacks{
		EmptyBufferDone: func(hdr *api.BufferHeader) { emptyDone++ },
	}
	c, proc, _ := newEchoComponent(cb)

	if errc := c.SendCommand(api.CommandStateSet, int(fsm.StateIdle), nil); errc != api.ErrorNone {
		t.Fatalf("SendCommand(Idle): %v", errc)
	}
	if _, err := c.Tick(4); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.GetState() != fsm.StateLoaded {
		t.Fatalf("expected still Loaded pending UseBuffer, got %v", c.GetState())
	}

	hdr, errc := c.UseBuffer(0, make([]byte, 16), nil)
	if errc != api.ErrorNone {
		t.Fatalf("UseBuffer: %v", errc)
	}
	if c.GetState() != fsm.StateIdle {
		t.Fatalf("expected settled Idle, got %v", c.GetState())
	}

	if errc := c.SendCommand(api.CommandStateSet, int(fsm.StateExecuting), nil); errc != api.ErrorNone {
		t.Fatalf("SendCommand(Executing): %v", errc)
	}
	if _, err := c.Tick(4); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.GetState() != fsm.StateExecuting {
		t.Fatalf("expected settled Executing, got %v (sub=%v)", c.GetState(), c.FSM.SubStateInProgress())
	}

	if errc := c.EmptyThisBuffer(0, hdr); errc != api.ErrorNone {
		t.Fatalf("EmptyThisBuffer: %v", errc)
	}
	if _, err := c.Tick(4); err != nil {
		t.Fatalf("Tick (ingress->claim): %v", err)
	}
	if proc.claims != 1 {
		t.Fatalf("expected processor to claim once, got %d", proc.claims)
	}
	if _, err := c.Tick(4); err != nil {
		t.Fatalf("Tick (callback->egress): %v", err)
	}
	if emptyDone != 1 {
		t.Fatalf("expected EmptyBufferDone once, got %d", emptyDone)
	}

	if errc := c.SendCommand(api.CommandStateSet, int(fsm.StateIdle), nil); errc != api.ErrorNone {
		t.Fatalf("SendCommand(Idle from Executing): %v", errc)
	}
	if _, err := c.Tick(4); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if c.GetState() != fsm.StateIdle {
		t.Fatalf("expected settled back to Idle, got %v", c.GetState())
	}
	if err := c.Kernel.CheckConservation(); err != nil {
		t.Fatalf("conservation violated: %v", err)
	}
}

func TestPluggableEventRunsOnServant(t *testing.T) {
	c, _, _ := newEchoComponent(api.Callbacks{})

	var sawHandle api.Handle
	ok := c.SubmitPluggableEvent(api.PluggableEvent{
		Fn: func(h api.Handle) { sawHandle = h },
	})
	if !ok {
		t.Fatalf("SubmitPluggableEvent rejected")
	}
	if _, err := c.Tick(1); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if sawHandle != c.Handle {
		t.Fatalf("expected pluggable event to observe this component's handle")
	}
}

func TestComponentTunnelRequestRejectsWhileEnabled(t *testing.T) {
	c, _, p := newEchoComponent(api.Callbacks{})
	p.Flags.Enabled = true

	errc := c.ComponentTunnelRequest(0, port.TunnelPeer{Index: 0}, true, false)
	if errc != api.ErrorIncorrectStateOperation {
		t.Fatalf("expected IncorrectStateOperation tunneling an enabled port, got %v", errc)
	}

	p.Flags.Enabled = false
	if errc := c.ComponentTunnelRequest(0, port.TunnelPeer{Index: 2}, true, false); errc != api.ErrorNone {
		t.Fatalf("ComponentTunnelRequest: %v", errc)
	}
	if !p.Flags.Tunneled {
		t.Fatalf("expected port marked tunneled")
	}

	if errc := c.ComponentTunnelRequest(0, port.TunnelPeer{}, false, true); errc != api.ErrorNone {
		t.Fatalf("teardown ComponentTunnelRequest: %v", errc)
	}
	if p.Flags.Tunneled {
		t.Fatalf("expected tunnel torn down")
	}
}
