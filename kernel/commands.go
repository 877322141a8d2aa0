// File: kernel/commands.go
// Author: momentics <momentics@gmail.com>
//
// Command dispatch table (spec.md §4.3.1): a 5-entry table indexed by
// OMX_COMMANDTYPE. StateSet delegates to the FSM's 6x6 table; the
// other four are handled directly here.

package kernel

import (
	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/fsm"
	"github.com/tizonia/omxcore/port"
)

// HandleCommand dispatches one SendCommand request (spec.md §4.3.1).
func (k *Kernel) HandleCommand(cmd api.CommandType, param int, extra any) api.ErrorType {
	switch cmd {
	case api.CommandStateSet:
		return k.handleStateSet(fsm.State(param))
	case api.CommandFlush:
		return k.handleFlush(param)
	case api.CommandPortDisable:
		return k.handlePortDisable(param)
	case api.CommandPortEnable:
		return k.handlePortEnable(param)
	case api.CommandMarkBuffer:
		m, ok := extra.(port.Mark)
		if !ok {
			return api.ErrorBadParameter
		}
		return k.handleMarkBuffer(param, m)
	default:
		return api.ErrorNotImplemented
	}
}

func (k *Kernel) handleStateSet(requested fsm.State) api.ErrorType {
	if k.FSM == nil {
		return api.ErrorNotImplemented
	}
	k.resetTunneledPortsStatus()
	errc := k.FSM.RequestTransition(requested)
	if errc == api.ErrorNone && k.FSM.SubStateInProgress() == fsm.SubStateNone {
		// cellTrue path: settled synchronously, one CmdComplete already
		// emitted by the FSM itself.
		return api.ErrorNone
	}
	return errc
}

// handleFlush drains ingress and egress to host callbacks or tunneled
// peer for one port (or every port, PortIndexAll), then calls
// processor.PortFlush (spec.md §4.3.1).
func (k *Kernel) handleFlush(portIndex int) api.ErrorType {
	targets := k.targetPorts(portIndex)
	if len(targets) == 0 {
		return api.ErrorBadPortIndex
	}
	k.cmdCompletionCount[api.CommandFlush] = len(targets)
	for _, i := range targets {
		k.drainPort(i)
		if k.Proc != nil {
			if errc := k.Proc.PortFlush(k.Ports[i].Index); errc != api.ErrorNone {
				return errc
			}
		}
		k.completeOne(api.CommandFlush, uint32(k.Ports[i].Index))
	}
	return api.ErrorNone
}

// drainPort flushes every queued header on port i's ingress and
// egress lists to the host or tunnel peer, each with filled_len
// reset to zero per spec.md scenario 6 ("buffers return to the host
// with filled_len=0").
func (k *Kernel) drainPort(i int) {
	p := k.Ports[i]
	for _, h := range append(k.ingress[i], k.egress[i]...) {
		h.FilledLen = 0
		k.flushHeader(p, h)
	}
	k.ingress[i] = nil
	k.egress[i] = nil
}

// handlePortDisable drains the queued traffic on each target port and,
// only once none of its buffers are still claimed by the processor,
// depopulates and completes it (spec.md §8 Scenario 3: "waits for
// releases, frees buffers, emits CmdComplete... exactly once"). A port
// with buffers still claimed stays BeingDisabled; completePortDisable
// runs later from Callback once the processor releases the last one.
func (k *Kernel) handlePortDisable(portIndex int) api.ErrorType {
	targets := k.targetPorts(portIndex)
	if len(targets) == 0 {
		return api.ErrorBadPortIndex
	}
	k.cmdCompletionCount[api.CommandPortDisable] = len(targets)
	for _, i := range targets {
		p := k.Ports[i]
		p.Flags.BeingDisabled = true
		p.Flags.Enabled = false
		if k.Proc != nil {
			k.Proc.PortDisable(p.Index)
		}
		k.drainPort(i)
		if p.ClaimedCount() > 0 {
			continue
		}
		if errc := k.completePortDisable(p); errc != api.ErrorNone {
			return errc
		}
	}
	return api.ErrorNone
}

// completePortDisable depopulates p and emits CmdComplete(PortDisable)
// exactly once. Called either synchronously from handlePortDisable, or
// later from Kernel.Callback once the last claimed buffer on a
// being-disabled port is released (spec.md §8 Scenario 3).
func (k *Kernel) completePortDisable(p *port.Port) api.ErrorType {
	if errc := p.Depopulate(); errc != api.ErrorNone {
		return errc
	}
	if p.HeaderCount() == 0 {
		p.Flags.BeingDisabled = false
		k.completeOne(api.CommandPortDisable, uint32(p.Index))
	}
	return api.ErrorNone
}

func (k *Kernel) handlePortEnable(portIndex int) api.ErrorType {
	targets := k.targetPorts(portIndex)
	if len(targets) == 0 {
		return api.ErrorBadPortIndex
	}
	k.cmdCompletionCount[api.CommandPortEnable] = len(targets)
	for _, i := range targets {
		p := k.Ports[i]
		p.Flags.BeingEnabled = true
		if p.Flags.Tunneled && p.Flags.Supplier {
			if errc := p.Populate(); errc != api.ErrorNone {
				return errc
			}
		}
		p.Flags.Enabled = true
		if p.Flags.Populated || p.BufferCount == 0 {
			p.Flags.BeingEnabled = false
			k.completeOne(api.CommandPortEnable, uint32(p.Index))
		}
	}
	k.updateTunneledPortsStatus()
	return api.ErrorNone
}

func (k *Kernel) handleMarkBuffer(portIndex int, m port.Mark) api.ErrorType {
	p, _, ok := k.portByIndex(portIndex)
	if !ok {
		return api.ErrorBadPortIndex
	}
	p.PushMark(m)
	k.completeOne(api.CommandMarkBuffer, uint32(portIndex))
	return api.ErrorNone
}

// completeOne decrements the pending per-port completion count for
// cmd and emits one CmdComplete for this port, so an OMX_ALL command
// reports each port's completion individually; nothing is coalesced
// into a single event when the count reaches zero.
func (k *Kernel) completeOne(cmd api.CommandType, param uint32) {
	if k.cmdCompletionCount[cmd] > 0 {
		k.cmdCompletionCount[cmd]--
	}
	if k.Events != nil {
		k.Events.IssueCmdEvent(cmd, param)
	}
}

// targetPorts resolves PortIndexAll to every regular port, or a single
// port index to a one-element slice of its position in k.Ports.
func (k *Kernel) targetPorts(portIndex int) []int {
	if portIndex == api.PortIndexAll {
		out := make([]int, len(k.Ports))
		for i := range k.Ports {
			out[i] = i
		}
		return out
	}
	_, i, ok := k.portByIndex(portIndex)
	if !ok {
		return nil
	}
	return []int{i}
}
