// File: kernel/tunnel.go
// Author: momentics <momentics@gmail.com>
//
// ComponentTunnelRequest negotiates a tunnel between two ports of
// different components (spec.md §6); updateTunneledPortsStatus tracks
// the three latches (accept_use_buffer_notified,
// accept_buffer_exchange_notified, may_transition_exe2idle_notified)
// and advertises OMX_IndexConfigTunneledPortStatus exactly once per
// phase when the matching predicate holds across every tunneled-
// supplier port (spec.md §4.3.2).

package kernel

import (
	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/port"
)

// TunnelSetup is what the host or the other component's kernel
// supplies to negotiate one tunnel leg (spec.md §6: supplier role,
// buffer_count, buffer_size negotiation).
type TunnelSetup struct {
	Peer        port.TunnelPeer
	WantsSupply bool
}

// ComponentTunnelRequest negotiates portIndex's tunnel with setup, or
// tears the tunnel down when setup is nil. Supplier role resolves to
// whichever side requests it; if both or neither request it, this
// port's own current port keeps (or takes, as output ports default to
// supplier) the role, matching OMX IL's output-is-supplier-by-default
// convention.
func (k *Kernel) ComponentTunnelRequest(portIndex int, setup *TunnelSetup) api.ErrorType {
	p, _, ok := k.portByIndex(portIndex)
	if !ok {
		return api.ErrorBadPortIndex
	}
	if p.Flags.Enabled {
		return api.ErrorIncorrectStateOperation
	}

	if setup == nil {
		p.Flags.Tunneled = false
		p.Flags.Supplier = false
		p.Peer = nil
		return api.ErrorNone
	}

	peer := setup.Peer
	p.Flags.Tunneled = true
	p.Peer = &peer

	switch {
	case setup.WantsSupply && p.Dir == api.DirOutput:
		p.Flags.Supplier = false
	case !setup.WantsSupply && p.Dir == api.DirOutput:
		p.Flags.Supplier = true
	case setup.WantsSupply && p.Dir == api.DirInput:
		p.Flags.Supplier = true
	default:
		p.Flags.Supplier = false
	}

	return api.ErrorNone
}

// updateTunneledPortsStatus recomputes the three tunneled-port-status
// predicates and, for each one that newly holds across every
// tunneled-supplier port, fires its latch and advertises
// OMX_IndexConfigTunneledPortStatus exactly once (spec.md §4.3.2).
func (k *Kernel) updateTunneledPortsStatus() {
	suppliers := make([]*port.Port, 0, len(k.Ports))
	for _, p := range k.Ports {
		if p.Flags.Tunneled && p.Flags.Supplier {
			suppliers = append(suppliers, p)
		}
	}
	if len(suppliers) == 0 {
		return
	}

	allTrue := func(pred func(*port.Port) bool) bool {
		for _, p := range suppliers {
			if !pred(p) {
				return false
			}
		}
		return true
	}

	if !k.acceptUseBufferNotified && allTrue(func(p *port.Port) bool { return p.Flags.Populated || p.BufferCount == 0 }) {
		k.acceptUseBufferNotified = true
		k.notifyTunneledPortsStatus(suppliers)
	}
	if !k.acceptBufferExchangeNotified && allTrue(func(p *port.Port) bool { return p.Flags.Enabled }) {
		k.acceptBufferExchangeNotified = true
		k.notifyTunneledPortsStatus(suppliers)
	}
	if !k.mayTransitionExe2IdleNotified && allTrue(func(p *port.Port) bool { return p.ClaimedCount() == 0 }) {
		k.mayTransitionExe2IdleNotified = true
		k.notifyTunneledPortsStatus(suppliers)
	}
}

func (k *Kernel) notifyTunneledPortsStatus(suppliers []*port.Port) {
	if k.Events == nil {
		return
	}
	for _, p := range suppliers {
		k.Events.IssueEvent(api.EventIndexSettingChanged, uint32(p.Index), uint32(api.IndexConfigTunneledPortStatus), nil)
	}
}
