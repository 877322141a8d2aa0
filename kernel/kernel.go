// File: kernel/kernel.go
// Author: momentics <momentics@gmail.com>
//
// Kernel implements spec.md §4.3: port registry, ingress/egress
// buffer-header lists, command dispatch, tunneling, resource
// lifecycle, and transition-completion predicates. It is the most
// intricate subsystem (~40% of the runtime per spec.md §2).

package kernel

import (
	"fmt"
	"log"

	"golang.org/x/sys/cpu"

	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/fsm"
	"github.com/tizonia/omxcore/port"
	"github.com/tizonia/omxcore/processor"
	"github.com/tizonia/omxcore/servant"
)

// ResourceManager models the external RM proxy collaborator
// (SPEC_FULL.md §5, grounded on tizkernel_decls.h's tiz_rm_proxy_
// callbacks_t). A nil ResourceManager is a no-op, matching spec.md's
// original scope exactly.
type ResourceManager interface {
	WaitEnd()
	PreemptRequest()
	PreemptComplete()
}

// PopulationStatus is the finer-grained population query restored
// from tiz_krn_get_population_status (SPEC_FULL.md §5).
type PopulationStatus int

const (
	Populated PopulationStatus = iota
	Depopulated
	Partial
)

// MetadataItem is a free-form tag entry (SPEC_FULL.md §5, restored
// from tiz_krn_store_metadata/clear_metadata).
type MetadataItem struct {
	Key   string
	Value string
}

// RestrictionKind names a behavioral restriction query
// (SPEC_FULL.md §5, tiz_krn_restriction_t).
type RestrictionKind int

const (
	RestrictPortDefinitionWhileTunneled RestrictionKind = iota
	RestrictBufferExchangeWhileDisabled
)

// TunnelDispatch reaches a tunnel peer's EmptyThisBuffer/FillThisBuffer
// by (handle, port index) — never a direct pointer (spec.md §9).
type TunnelDispatch func(peer port.TunnelPeer, dir api.PortDir, hdr *api.BufferHeader) api.ErrorType

// Kernel owns every regular port plus the config port of one
// component.
type Kernel struct {
	Ports      []*port.Port
	ConfigPort *port.Port

	ingress [][]*api.BufferHeader // per-port FIFO, indexed by position in Ports
	egress  [][]*api.BufferHeader
	claimed [][]*api.BufferHeader

	FSM   *fsm.FSM
	Proc  processor.Processor
	Events *servant.Events

	// Enqueue posts a servant.Message on this component's own queue;
	// wired by component.Component to *servant.Servant.Enqueue.
	Enqueue func(servant.Message) bool

	// Dispatch reaches a tunnel peer; wired by the host runtime, which
	// knows how to resolve a handle to a live component.
	Dispatch TunnelDispatch

	RM ResourceManager

	// SlavingApply mirrors a changed parameter between master/slave
	// ports on a successful SetParameter (spec.md §4.2); nil means
	// this component has no slaved port pairs.
	SlavingApply SlavingApply

	metadata []MetadataItem

	// Tunneled port-status latches (spec.md §4.3.2): component-wide,
	// reset once per transition per the Open Question decision in
	// DESIGN.md.
	acceptUseBufferNotified      bool
	acceptBufferExchangeNotified bool
	mayTransitionExe2IdleNotified bool

	cmdCompletionCount map[api.CommandType]int

	StrictConservationChecks bool

	hasAVX2 bool
}

// New creates a Kernel over ports (config port optional, may be nil).
func New(ports []*port.Port, configPort *port.Port) *Kernel {
	k := &Kernel{
		Ports:              ports,
		ConfigPort:         configPort,
		ingress:            make([][]*api.BufferHeader, len(ports)),
		egress:             make([][]*api.BufferHeader, len(ports)),
		claimed:            make([][]*api.BufferHeader, len(ports)),
		cmdCompletionCount: make(map[api.CommandType]int),
		hasAVX2:            cpu.X86.HasAVX2,
	}
	return k
}

func (k *Kernel) portByIndex(idx int) (*port.Port, int, bool) {
	for i, p := range k.Ports {
		if p.Index == idx {
			return p, i, true
		}
	}
	return nil, -1, false
}

// resetTunneledPortsStatus clears the three latches on substate
// re-entry (DESIGN.md Open Question 1: per-transition, grounded on
// tiz_krn_reset_tunneled_ports_status existing specifically for this).
func (k *Kernel) resetTunneledPortsStatus() {
	k.acceptUseBufferNotified = false
	k.acceptBufferExchangeNotified = false
	k.mayTransitionExe2IdleNotified = false
}

// StoreMetadata appends a tag item (SPEC_FULL.md §5).
func (k *Kernel) StoreMetadata(item MetadataItem) {
	k.metadata = append(k.metadata, item)
}

// ClearMetadata empties the tag store.
func (k *Kernel) ClearMetadata() {
	k.metadata = nil
}

// Metadata returns the current tag items.
func (k *Kernel) Metadata() []MetadataItem {
	out := make([]MetadataItem, len(k.metadata))
	copy(out, k.metadata)
	return out
}

// Restricted answers a behavioral restriction query (SPEC_FULL.md §5).
func (k *Kernel) Restricted(kind RestrictionKind) bool {
	switch kind {
	case RestrictPortDefinitionWhileTunneled:
		for _, p := range k.Ports {
			if p.Flags.Tunneled {
				return true
			}
		}
		return false
	case RestrictBufferExchangeWhileDisabled:
		return true
	default:
		return false
	}
}

// logFatal reports an invariant violation per spec.md §7 ("Fatal:
// invariant violation... Logged and reported as Error").
func (k *Kernel) logFatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("kernel: FATAL invariant violation: %s", msg)
	if k.Events != nil {
		k.Events.IssueErrEvent(api.ErrorInsufficientResources)
	}
}
