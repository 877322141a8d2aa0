// File: kernel/buffer_exchange.go
// Author: momentics <momentics@gmail.com>
//
// EmptyThisBuffer/FillThisBuffer/Callback implement spec.md §4.3.2:
// buffer headers move host -> ingress -> claimed -> egress -> host
// (or tunnel peer), and the api.BufferHeader.Slot tag always names
// exactly one of those locations (spec.md invariant 1).

package kernel

import (
	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/fsm"
	"github.com/tizonia/omxcore/port"
	"github.com/tizonia/omxcore/servant"
)

// EmptyThisBuffer appends hdr to the input port's ingress list and
// signals the processor that buffers are ready.
func (k *Kernel) EmptyThisBuffer(portIndex int, hdr *api.BufferHeader) api.ErrorType {
	return k.enqueueIngress(portIndex, hdr)
}

// FillThisBuffer appends hdr to the output port's ingress list and
// signals the processor that buffers are ready.
func (k *Kernel) FillThisBuffer(portIndex int, hdr *api.BufferHeader) api.ErrorType {
	return k.enqueueIngress(portIndex, hdr)
}

func (k *Kernel) enqueueIngress(portIndex int, hdr *api.BufferHeader) api.ErrorType {
	p, i, ok := k.portByIndex(portIndex)
	if !ok {
		return api.ErrorBadPortIndex
	}
	if !p.Flags.Enabled || p.Flags.BeingDisabled {
		return api.ErrorIncorrectStateOperation
	}
	hdr.SetSlot(api.SlotIngress)
	k.ingress[i] = append(k.ingress[i], hdr)

	// processor.Processor's contract (spec.md §4.4) requires
	// BuffersReady to fire only while the component is Executing and
	// "must not be called in Pause" — the header still queues onto
	// ingress regardless of FSM state, but the processor is only
	// notified once there is something to drive.
	if k.Proc != nil && k.FSM != nil && k.FSM.Current() == fsm.StateExecuting {
		if errc := k.Proc.BuffersReady(); errc != api.ErrorNone {
			return errc
		}
	}
	return api.ErrorNone
}

// ClaimBuffer implements processor.KernelAPI: pop ingress[pos] for
// port pid, mark it Claimed, and increment the port's claimed-count.
func (k *Kernel) ClaimBuffer(pid int, pos int) (*api.BufferHeader, api.ErrorType) {
	p, i, ok := k.portByIndex(pid)
	if !ok {
		return nil, api.ErrorBadPortIndex
	}
	if pos < 0 || pos >= len(k.ingress[i]) {
		return nil, api.ErrorNotReady
	}
	hdr := k.ingress[i][pos]
	k.ingress[i] = append(k.ingress[i][:pos], k.ingress[i][pos+1:]...)

	if p.Dir == api.DirInput {
		// p.MarkBuffer stamps hdr.SetMark when a pending mark rides
		// out on this header; flushHeader emits the EventMark once
		// this same header completes its journey out of the
		// component (spec.md §8 "Mark round-trip").
		p.MarkBuffer(hdr)
	} else if p.Flags.Allocator && hdr.Buffer.Data == nil {
		// Lazy allocation for output allocator ports: a header that
		// has no backing memory yet gets AllocLen bytes on first claim.
		hdr.Buffer = api.Buffer{Data: make([]byte, hdr.AllocLen)}
	}

	hdr.SetSlot(api.SlotClaimed)
	k.claimed[i] = append(k.claimed[i], hdr)
	p.IncClaimed()
	if k.StrictConservationChecks {
		_ = k.CheckConservation()
	}
	return hdr, api.ErrorNone
}

// ReleaseBuffer implements processor.KernelAPI: posts a Callback
// message on this component's own servant queue; the kernel moves it
// onto egress asynchronously when that message dispatches.
func (k *Kernel) ReleaseBuffer(pid int, hdr *api.BufferHeader) api.ErrorType {
	_, _, ok := k.portByIndex(pid)
	if !ok {
		return api.ErrorBadPortIndex
	}
	if k.Enqueue == nil {
		// No servant wired (e.g. a kernel-only unit test): apply the
		// callback synchronously.
		return k.Callback(pid, hdr)
	}
	isOutput := hdr.OutputPortIndex == pid
	ok = k.Enqueue(newCallbackMessage(hdr, isOutput))
	if !ok {
		return api.ErrorInsufficientResources
	}
	return api.ErrorNone
}

// newCallbackMessage wraps hdr in a servant.Message so ReleaseBuffer
// can hand it to the component's own priority queue instead of
// applying the Callback inline on the processor's call stack. The
// port index rides along on hdr itself (InputPortIndex/OutputPortIndex),
// so the dispatcher recovers pid from isOutput without a separate field.
func newCallbackMessage(hdr *api.BufferHeader, isOutput bool) servant.Message {
	return servant.Message{
		Kind: servant.KindCallback,
		Callback: &servant.CallbackMsg{
			Header:   hdr,
			IsOutput: isOutput,
		},
	}
}

// ClaimEGLImage resolves a GPU-backed tunnel peer image for hdr. This
// runtime has no GPU collaborator in scope (spec.md §1 non-goals), so
// it always reports NotImplemented.
func (k *Kernel) ClaimEGLImage(pid int, hdr *api.BufferHeader) (any, api.ErrorType) {
	return nil, api.ErrorNotImplemented
}

// Callback moves hdr from claimed to egress for port pid and flushes
// it immediately (spec.md §4.3.2). If a PortDisable was waiting on
// this port's last claimed buffer (spec.md §8 Scenario 3), releasing
// it here settles that deferred disable instead of the usual
// transition/tunnel-status bookkeeping.
func (k *Kernel) Callback(pid int, hdr *api.BufferHeader) api.ErrorType {
	p, i, ok := k.portByIndex(pid)
	if !ok {
		return api.ErrorBadPortIndex
	}
	for j, h := range k.claimed[i] {
		if h == hdr {
			k.claimed[i] = append(k.claimed[i][:j], k.claimed[i][j+1:]...)
			p.DecClaimed()
			break
		}
	}
	hdr.SetSlot(api.SlotEgress)
	k.flushHeader(p, hdr)

	if p.Flags.BeingDisabled && p.ClaimedCount() == 0 {
		return k.completePortDisable(p)
	}

	k.CheckTransitionCompletion()
	k.updateTunneledPortsStatus()
	return api.ErrorNone
}

// flushHeader dispatches hdr to the host (EmptyBufferDone/
// FillBufferDone) or, if p is tunneled, to the peer's ETB/FTB —
// spec.md §4.3.2's "Callback ... then flushed". This is the single
// chokepoint every header passes through on its way out of the
// component (Callback's claimed->egress hop, and drainPort's Flush/
// StopAndReturn sweeps), so it is also where the EOS and mark
// round-trip events fire (spec.md §8 Scenario 2, "Mark round-trip"):
// BufferFlag(EOS) when the header carries FlagEOS, and Mark exactly
// once for the first header to leave the component after a pending
// mark attached to it.
//
// The kernel records golang.org/x/sys/cpu's AVX2 flag (hasAVX2), but
// nothing reads it: drainPort flushes its headers one flushHeader call
// at a time, and each call dispatches exactly one header.
func (k *Kernel) flushHeader(p *port.Port, hdr *api.BufferHeader) api.ErrorType {
	isOutput := hdr.OutputPortIndex == p.Index

	if k.Events != nil {
		if hdr.HasFlag(api.FlagEOS) {
			k.Events.IssueEvent(api.EventBufferFlag, uint32(p.Index), hdr.Flags, nil)
		}
		if hdr.HasMark() {
			target, data := hdr.MarkTargetComponent, hdr.MarkData
			hdr.ClearMark()
			k.Events.IssueEvent(api.EventMark, uint32(p.Index), 0, api.MarkEventData{Target: target, Data: data})
		}
	}

	if !p.Flags.Tunneled {
		if k.Events != nil {
			k.Events.IssueBufCallback(hdr, isOutput)
		}
		hdr.SetSlot(api.SlotAtHost)
		return api.ErrorNone
	}

	if p.Peer == nil || k.Dispatch == nil {
		k.logFatal("tunneled port %d has no peer/dispatch wired", p.Index)
		return api.ErrorInsufficientResources
	}

	// Output ports hand a filled buffer to the peer's input (FillThis
	// Buffer on a peer that owns it as an input port is the peer's
	// EmptyThisBuffer call from this component's point of view); the
	// direction passed on is simply this port's own direction, since
	// the peer's TunnelDispatch implementation resolves ETB vs FTB by
	// inspecting its own port's direction at the peer index.
	hdr.SetSlot(api.SlotAtPeer)
	return k.Dispatch(*p.Peer, p.Dir, hdr)
}
