// File: kernel/kernel_test.go
package kernel

import (
	"testing"

	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/fsm"
	"github.com/tizonia/omxcore/port"
	"github.com/tizonia/omxcore/processor"
	"github.com/tizonia/omxcore/servant"
)

type trackingProcessor struct {
	processor.Base
	buffersReadyCalls int
	transferCalls     int
	stopCalls         int
}

func (p *trackingProcessor) BuffersReady() api.ErrorType {
	p.buffersReadyCalls++
	return api.ErrorNone
}

func (p *trackingProcessor) TransferAndProcess(pid int) api.ErrorType {
	p.transferCalls++
	return api.ErrorNone
}

func (p *trackingProcessor) StopAndReturn() api.ErrorType {
	p.stopCalls++
	return api.ErrorNone
}

func newTestKernel() (*Kernel, *port.Port) {
	p := port.New(0, api.DirInput, api.DomainOther, nil)
	p.BufferCount = 1
	p.Flags.Enabled = true
	k := New([]*port.Port{p}, nil)
	k.FSM = k.NewFSM()
	return k, p
}

func TestLoadedToIdleSettlesOnUseBuffer(t *testing.T) {
	k, _ := newTestKernel()
	proc := &trackingProcessor{Base: processor.Base{Kernel: k}}
	k.Proc = proc

	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateIdle), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Idle) rejected: %v", errc)
	}
	if k.FSM.SubStateInProgress() != fsm.SubStateLoadedToIdle {
		t.Fatalf("expected LoadedToIdle substate, got %v", k.FSM.SubStateInProgress())
	}

	if _, errc := k.UseBuffer(0, make([]byte, 16), nil); errc != api.ErrorNone {
		t.Fatalf("UseBuffer failed: %v", errc)
	}
	if k.FSM.Current() != fsm.StateIdle {
		t.Fatalf("expected settled Idle, got %v", k.FSM.Current())
	}
	if k.FSM.SubStateInProgress() != fsm.SubStateNone {
		t.Fatalf("expected no pending substate after completion")
	}
}

func TestFullLifecycleToExecutingAndBack(t *testing.T) {
	k, _ := newTestKernel()
	proc := &trackingProcessor{Base: processor.Base{Kernel: k}}
	k.Proc = proc

	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateIdle), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Idle): %v", errc)
	}
	if _, errc := k.UseBuffer(0, make([]byte, 16), nil); errc != api.ErrorNone {
		t.Fatalf("UseBuffer: %v", errc)
	}
	if k.FSM.Current() != fsm.StateIdle {
		t.Fatalf("expected Idle, got %v", k.FSM.Current())
	}

	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateExecuting), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Executing): %v", errc)
	}
	if k.FSM.Current() != fsm.StateExecuting {
		t.Fatalf("expected settled Executing, got %v (sub=%v)", k.FSM.Current(), k.FSM.SubStateInProgress())
	}
	if proc.transferCalls != 1 {
		t.Fatalf("expected TransferAndProcess called once, got %d", proc.transferCalls)
	}

	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateIdle), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Idle) from Executing: %v", errc)
	}
	if k.FSM.Current() != fsm.StateIdle {
		t.Fatalf("expected settled back to Idle, got %v", k.FSM.Current())
	}
	if proc.stopCalls != 1 {
		t.Fatalf("expected StopAndReturn called once, got %d", proc.stopCalls)
	}
}

func TestConservationHoldsAcrossClaimRelease(t *testing.T) {
	k, p := newTestKernel()
	p.Flags.Enabled = true
	k.StrictConservationChecks = true
	proc := &trackingProcessor{Base: processor.Base{Kernel: k}}
	k.Proc = proc

	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateIdle), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Idle): %v", errc)
	}
	hdr, errc := k.UseBuffer(0, make([]byte, 16), nil)
	if errc != api.ErrorNone {
		t.Fatalf("UseBuffer: %v", errc)
	}
	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateExecuting), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Executing): %v", errc)
	}

	if errc := k.EmptyThisBuffer(0, hdr); errc != api.ErrorNone {
		t.Fatalf("EmptyThisBuffer: %v", errc)
	}
	if proc.buffersReadyCalls != 1 {
		t.Fatalf("expected one BuffersReady call, got %d", proc.buffersReadyCalls)
	}

	claimed, errc := k.ClaimBuffer(0, 0)
	if errc != api.ErrorNone {
		t.Fatalf("ClaimBuffer: %v", errc)
	}
	if claimed.Slot() != api.SlotClaimed {
		t.Fatalf("expected SlotClaimed, got %v", claimed.Slot())
	}
	if p.ClaimedCount() != 1 {
		t.Fatalf("expected claimed-count 1, got %d", p.ClaimedCount())
	}

	if err := k.checkConservation(); err != nil {
		t.Fatalf("conservation violated mid-flight: %v", err)
	}

	if errc := k.ReleaseBuffer(0, claimed); errc != api.ErrorNone {
		t.Fatalf("ReleaseBuffer: %v", errc)
	}
	if p.ClaimedCount() != 0 {
		t.Fatalf("expected claimed-count 0 after release, got %d", p.ClaimedCount())
	}
	if claimed.Slot() != api.SlotAtHost {
		t.Fatalf("expected header back at host, got %v", claimed.Slot())
	}
}

func TestFlushDrainsIngressWithZeroFilledLen(t *testing.T) {
	k, _ := newTestKernel()
	proc := &trackingProcessor{Base: processor.Base{Kernel: k}}
	k.Proc = proc

	hdr, errc := k.UseBuffer(0, make([]byte, 16), nil)
	if errc != api.ErrorNone {
		t.Fatalf("UseBuffer: %v", errc)
	}
	hdr.FilledLen = 10
	if errc := k.EmptyThisBuffer(0, hdr); errc != api.ErrorNone {
		t.Fatalf("EmptyThisBuffer: %v", errc)
	}

	if errc := k.HandleCommand(api.CommandFlush, api.PortIndexAll, nil); errc != api.ErrorNone {
		t.Fatalf("Flush: %v", errc)
	}
	if hdr.FilledLen != 0 {
		t.Fatalf("expected filled_len reset to 0, got %d", hdr.FilledLen)
	}
	if len(k.ingress[0]) != 0 {
		t.Fatalf("expected ingress drained, got %d", len(k.ingress[0]))
	}
}

func TestMarkBufferRidesOutOnClaimedHeader(t *testing.T) {
	k, p := newTestKernel()
	mark := port.Mark{TargetComponent: api.NewHandle(), Data: "tag"}
	if errc := k.HandleCommand(api.CommandMarkBuffer, 0, mark); errc != api.ErrorNone {
		t.Fatalf("MarkBuffer: %v", errc)
	}
	hdr, errc := k.UseBuffer(0, make([]byte, 16), nil)
	if errc != api.ErrorNone {
		t.Fatalf("UseBuffer: %v", errc)
	}
	if errc := k.EmptyThisBuffer(0, hdr); errc != api.ErrorNone {
		t.Fatalf("EmptyThisBuffer: %v", errc)
	}
	if _, errc := k.ClaimBuffer(0, 0); errc != api.ErrorNone {
		t.Fatalf("ClaimBuffer: %v", errc)
	}
	m, ok := p.MarkBuffer(hdr)
	_ = m
	if ok {
		t.Fatalf("mark already consumed by ClaimBuffer")
	}
	if hdr.MarkData != "tag" {
		t.Fatalf("expected mark to ride out on claimed header, got %v", hdr.MarkData)
	}
}

// TestEOSPropagationEmitsBufferFlag is spec.md §8 Scenario 2: a host
// EmptyThisBuffer with FlagEOS set results in exactly one
// EventBufferFlag once the processor releases the header.
func TestEOSPropagationEmitsBufferFlag(t *testing.T) {
	k, _ := newTestKernel()
	proc := &trackingProcessor{Base: processor.Base{Kernel: k}}
	k.Proc = proc

	var bufferFlags int
	var lastPort, lastFlags uint32
	k.Events = servant.NewEvents(api.Callbacks{
		EventHandler: func(event api.EventType, data1, data2 uint32, eventData any) {
			if event == api.EventBufferFlag {
				bufferFlags++
				lastPort, lastFlags = data1, data2
			}
		},
	})

	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateIdle), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Idle): %v", errc)
	}
	hdr, errc := k.UseBuffer(0, make([]byte, 16), nil)
	if errc != api.ErrorNone {
		t.Fatalf("UseBuffer: %v", errc)
	}
	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateExecuting), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Executing): %v", errc)
	}

	hdr.Flags |= api.FlagEOS
	if errc := k.EmptyThisBuffer(0, hdr); errc != api.ErrorNone {
		t.Fatalf("EmptyThisBuffer: %v", errc)
	}
	claimed, errc := k.ClaimBuffer(0, 0)
	if errc != api.ErrorNone {
		t.Fatalf("ClaimBuffer: %v", errc)
	}
	if errc := k.ReleaseBuffer(0, claimed); errc != api.ErrorNone {
		t.Fatalf("ReleaseBuffer: %v", errc)
	}

	if bufferFlags != 1 {
		t.Fatalf("expected exactly one EventBufferFlag, got %d", bufferFlags)
	}
	if lastPort != 0 || lastFlags&api.FlagEOS == 0 {
		t.Fatalf("expected EOS on port 0, got port=%d flags=%x", lastPort, lastFlags)
	}
}

// TestMarkRoundTripEmitsEventMarkOnce is spec.md §8's universal "Mark
// round-trip" invariant: exactly one EventMark for the first buffer
// that traverses the component after the mark attaches, and no event
// for buffers that carry no mark.
func TestMarkRoundTripEmitsEventMarkOnce(t *testing.T) {
	k, _ := newTestKernel()
	proc := &trackingProcessor{Base: processor.Base{Kernel: k}}
	k.Proc = proc

	var markEvents int
	var lastMark api.MarkEventData
	k.Events = servant.NewEvents(api.Callbacks{
		EventHandler: func(event api.EventType, data1, data2 uint32, eventData any) {
			if event == api.EventMark {
				markEvents++
				lastMark = eventData.(api.MarkEventData)
			}
		},
	})

	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateIdle), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Idle): %v", errc)
	}
	hdr, errc := k.UseBuffer(0, make([]byte, 16), nil)
	if errc != api.ErrorNone {
		t.Fatalf("UseBuffer: %v", errc)
	}
	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateExecuting), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Executing): %v", errc)
	}

	target := api.NewHandle()
	if errc := k.HandleCommand(api.CommandMarkBuffer, 0, port.Mark{TargetComponent: target, Data: "tag"}); errc != api.ErrorNone {
		t.Fatalf("MarkBuffer: %v", errc)
	}

	if errc := k.EmptyThisBuffer(0, hdr); errc != api.ErrorNone {
		t.Fatalf("EmptyThisBuffer: %v", errc)
	}
	claimed, errc := k.ClaimBuffer(0, 0)
	if errc != api.ErrorNone {
		t.Fatalf("ClaimBuffer: %v", errc)
	}
	if !claimed.HasMark() {
		t.Fatalf("expected mark attached to claimed header")
	}
	if errc := k.ReleaseBuffer(0, claimed); errc != api.ErrorNone {
		t.Fatalf("ReleaseBuffer: %v", errc)
	}
	if markEvents != 1 {
		t.Fatalf("expected exactly one EventMark, got %d", markEvents)
	}
	if lastMark.Target != target || lastMark.Data != "tag" {
		t.Fatalf("unexpected mark event data: %+v", lastMark)
	}
	if claimed.HasMark() {
		t.Fatalf("expected mark cleared once EventMark fired")
	}

	hdr2, errc := k.UseBuffer(0, make([]byte, 16), nil)
	if errc != api.ErrorNone {
		t.Fatalf("UseBuffer #2: %v", errc)
	}
	if errc := k.EmptyThisBuffer(0, hdr2); errc != api.ErrorNone {
		t.Fatalf("EmptyThisBuffer #2: %v", errc)
	}
	claimed2, errc := k.ClaimBuffer(0, 0)
	if errc != api.ErrorNone {
		t.Fatalf("ClaimBuffer #2: %v", errc)
	}
	if errc := k.ReleaseBuffer(0, claimed2); errc != api.ErrorNone {
		t.Fatalf("ReleaseBuffer #2: %v", errc)
	}
	if markEvents != 1 {
		t.Fatalf("expected EventMark to stay at 1 for an unmarked buffer, got %d", markEvents)
	}
}

// TestPortDisableWaitsForClaimedBuffersBeforeCompleting is spec.md §8
// Scenario 3: disabling a port with buffers still claimed by the
// processor must not depopulate or complete until every claim is
// released, and must emit CmdComplete(PortDisable) exactly once.
func TestPortDisableWaitsForClaimedBuffersBeforeCompleting(t *testing.T) {
	k, p := newTestKernel()
	p.BufferCount = 2
	proc := &trackingProcessor{Base: processor.Base{Kernel: k}}
	k.Proc = proc

	var completions int
	k.Events = servant.NewEvents(api.Callbacks{
		EventHandler: func(event api.EventType, data1, data2 uint32, eventData any) {
			if event == api.EventCmdComplete && api.CommandType(data1) == api.CommandPortDisable {
				completions++
			}
		},
	})

	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateIdle), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Idle): %v", errc)
	}
	h1, errc := k.UseBuffer(0, make([]byte, 16), nil)
	if errc != api.ErrorNone {
		t.Fatalf("UseBuffer h1: %v", errc)
	}
	h2, errc := k.UseBuffer(0, make([]byte, 16), nil)
	if errc != api.ErrorNone {
		t.Fatalf("UseBuffer h2: %v", errc)
	}
	if errc := k.HandleCommand(api.CommandStateSet, int(fsm.StateExecuting), nil); errc != api.ErrorNone {
		t.Fatalf("StateSet(Executing): %v", errc)
	}

	if errc := k.EmptyThisBuffer(0, h1); errc != api.ErrorNone {
		t.Fatalf("ETB h1: %v", errc)
	}
	if errc := k.EmptyThisBuffer(0, h2); errc != api.ErrorNone {
		t.Fatalf("ETB h2: %v", errc)
	}
	c1, errc := k.ClaimBuffer(0, 0)
	if errc != api.ErrorNone {
		t.Fatalf("ClaimBuffer c1: %v", errc)
	}
	c2, errc := k.ClaimBuffer(0, 0)
	if errc != api.ErrorNone {
		t.Fatalf("ClaimBuffer c2: %v", errc)
	}

	if errc := k.HandleCommand(api.CommandPortDisable, 0, nil); errc != api.ErrorNone {
		t.Fatalf("PortDisable: %v", errc)
	}
	if completions != 0 {
		t.Fatalf("expected PortDisable to defer while buffers are claimed, got %d completions", completions)
	}
	if p.HeaderCount() != 2 {
		t.Fatalf("expected headers to remain until disable completes, got %d", p.HeaderCount())
	}

	if errc := k.ReleaseBuffer(0, c1); errc != api.ErrorNone {
		t.Fatalf("ReleaseBuffer c1: %v", errc)
	}
	if completions != 0 {
		t.Fatalf("expected PortDisable still pending with one claim outstanding, got %d completions", completions)
	}
	if errc := k.ReleaseBuffer(0, c2); errc != api.ErrorNone {
		t.Fatalf("ReleaseBuffer c2: %v", errc)
	}
	if completions != 1 {
		t.Fatalf("expected exactly one CmdComplete(PortDisable), got %d", completions)
	}
	if p.HeaderCount() != 0 {
		t.Fatalf("expected port depopulated once disable completed, got %d headers", p.HeaderCount())
	}
}
