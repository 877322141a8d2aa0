// File: kernel/lifecycle.go
// Author: momentics <momentics@gmail.com>
//
// AllocateResources/DeallocateResources/PrepareToTransfer/
// TransferAndProcess/StopAndReturn implement spec.md §4.3.3's resource
// lifecycle; these are the bodies wired into fsm.Steps under the
// micro-step names fsm's 6x6 table already names
// (loaded_to_idle, idle_to_loaded, idle_to_executing, ...).

package kernel

import (
	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/fsm"
)

// AllocateResources populates every enabled tunneled-supplier port (or
// the one named by pid when pid is not PortIndexAll) and marks every
// zero-buffer port trivially populated, then asks the
// processor to claim whatever external resources it needs. If a
// ResourceManager proxy is attached (SPEC_FULL.md §5), it is given a
// chance to wait out any pending preemption before resources are
// claimed; a nil RM is a no-op, identical to spec.md's original scope.
func (k *Kernel) AllocateResources(pid int) api.ErrorType {
	if k.RM != nil {
		k.RM.WaitEnd()
	}
	for _, i := range k.targetPorts(pid) {
		p := k.Ports[i]
		if p.BufferCount == 0 || (p.Flags.Enabled && p.Flags.Tunneled && p.Flags.Supplier) {
			if errc := p.Populate(); errc != api.ErrorNone {
				return errc
			}
		}
		if p.Flags.Populated && p.Flags.BeingEnabled {
			p.Flags.BeingEnabled = false
			k.completeOne(api.CommandPortEnable, uint32(p.Index))
		}
	}
	k.updateTunneledPortsStatus()
	defer k.CheckTransitionCompletion()
	if k.Proc != nil {
		return k.Proc.AllocateResources(pid)
	}
	return api.ErrorNone
}

// DeallocateResources depopulates every enabled tunneled-supplier port
// and lets the processor release whatever it claimed.
func (k *Kernel) DeallocateResources() api.ErrorType {
	for _, p := range k.Ports {
		if p.Flags.Enabled && p.Flags.Tunneled && p.Flags.Supplier {
			if errc := p.Depopulate(); errc != api.ErrorNone {
				return errc
			}
		}
	}
	defer k.CheckTransitionCompletion()
	if k.Proc != nil {
		return k.Proc.DeallocateResources()
	}
	return api.ErrorNone
}

// PrepareToTransfer clears per-port header lists and, for each enabled
// tunneled-supplier port, moves its owned headers onto egress (input
// ports) or ingress (output ports) ahead of the first buffer exchange.
func (k *Kernel) PrepareToTransfer(pid int) api.ErrorType {
	for _, i := range k.targetPorts(pid) {
		p := k.Ports[i]
		k.ingress[i] = nil
		k.egress[i] = nil
		k.claimed[i] = nil
		// A tunneled-supplier port's headers already live under
		// Port.headers from an earlier UseBuffer/AllocateBuffer; the
		// initial exchange primes egress (input ports hand buffers to
		// their peer first) or ingress (output ports receive first).
		if p.Flags.Enabled && p.Flags.Tunneled && p.Flags.Supplier {
			if p.Dir == api.DirInput {
				k.egress[i] = append(k.egress[i], p.Headers()...)
			} else {
				k.ingress[i] = append(k.ingress[i], p.Headers()...)
			}
		}
	}
	if k.Proc != nil {
		return k.Proc.PrepareToTransfer(pid)
	}
	return api.ErrorNone
}

// TransferAndProcess flushes each port's egress and lets ingress
// continue propagating toward the processor, then starts the
// processor ticking.
func (k *Kernel) TransferAndProcess(pid int) api.ErrorType {
	for _, i := range k.targetPorts(pid) {
		p := k.Ports[i]
		for _, h := range k.egress[i] {
			k.flushHeader(p, h)
		}
		k.egress[i] = nil
	}
	if k.Proc != nil {
		return k.Proc.TransferAndProcess(pid)
	}
	return api.ErrorNone
}

// StopAndReturn issues Flush to the processor and, for tunneled-supplier
// ports, moves egress back to ingress (so the next PrepareToTransfer
// starts from a clean slate), while non-tunneled ports flush ingress
// straight back to the host. ETB/FTB/Callback messages still waiting
// on the servant queue are not purged; they dispatch normally after
// this returns.
func (k *Kernel) StopAndReturn() api.ErrorType {
	defer k.CheckTransitionCompletion()
	for i, p := range k.Ports {
		if p.Flags.Tunneled && p.Flags.Supplier {
			k.ingress[i] = append(k.ingress[i], k.egress[i]...)
			k.egress[i] = nil
		} else {
			for _, h := range k.ingress[i] {
				h.FilledLen = 0
				k.flushHeader(p, h)
			}
			k.ingress[i] = nil
		}
		// Buffers the processor still holds (k.claimed[i]) are not
		// force-reclaimed here: all_buffers_returned() only settles
		// once the processor actually calls ReleaseBuffer for each.
	}
	if k.Proc != nil {
		if errc := k.Proc.PortFlush(api.PortIndexAll); errc != api.ErrorNone {
			return errc
		}
		if errc := k.Proc.StopAndReturn(); errc != api.ErrorNone {
			return errc
		}
	}
	return api.ErrorNone
}

// AllPopulated reports whether every regular port is populated
// (spec.md §4.3.4).
func (k *Kernel) AllPopulated() bool {
	for _, p := range k.Ports {
		if !p.Flags.Populated {
			return false
		}
	}
	return true
}

// AllDepopulated reports whether every regular port holds zero
// buffers (spec.md §4.3.4).
func (k *Kernel) AllDepopulated() bool {
	for _, p := range k.Ports {
		if p.HeaderCount() != 0 {
			return false
		}
	}
	return true
}

// AllBuffersReturned reports whether every port's claimed-count is
// zero (spec.md §4.3.4).
func (k *Kernel) AllBuffersReturned() bool {
	for _, p := range k.Ports {
		if p.ClaimedCount() != 0 {
			return false
		}
	}
	return true
}

// CheckTransitionCompletion asks the FSM to settle its pending
// substate when the matching completion predicate holds (spec.md
// §4.3.4: "After each UseBuffer/AllocateBuffer... the kernel asks the
// FSM to complete the transition"). Call after any operation that
// could make a predicate newly true: UseBuffer, AllocateBuffer,
// FreeBuffer, ReleaseBuffer/Callback.
func (k *Kernel) CheckTransitionCompletion() {
	if k.FSM == nil {
		return
	}
	var done bool
	switch k.FSM.SubStateInProgress() {
	case fsm.SubStateNone:
		return
	case fsm.SubStateLoadedToIdle, fsm.SubStatePauseToExecuting, fsm.SubStateIdleToExecuting:
		done = k.AllPopulated()
	case fsm.SubStateIdleToLoaded:
		done = k.AllDepopulated()
	case fsm.SubStateExecutingToIdle, fsm.SubStatePauseToIdle:
		done = k.AllBuffersReturned()
	case fsm.SubStateExecutingToPause, fsm.SubStateIdleToPause:
		done = true
	}
	if done {
		_ = k.FSM.CompleteTransition()
	}
}
