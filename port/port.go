// File: port/port.go
// Author: momentics <momentics@gmail.com>
//
// Port implements spec.md §4.2: buffer-header ownership, tunnel peer
// tracking, slaving, and the mark queue. A Port never touches the
// kernel's ingress/egress lists directly — those are owned by
// kernel.Kernel, which asks a Port only to validate/allocate headers.

package port

import (
	"github.com/eapache/queue"
	"github.com/tizonia/omxcore/api"
)

// Flags are the orthogonal boolean axes spec.md §4 (and
// SPEC_FULL.md §4's original_source supplement) tracks per port:
// enabled/disabled and populated/depopulated are independent bits,
// not a single enum.
type Flags struct {
	Enabled        bool
	BeingEnabled   bool
	BeingDisabled  bool
	Populated      bool
	Tunneled       bool
	Supplier       bool
	Allocator      bool
	IsConfigPort   bool
}

// TunnelPeer identifies the other side of a tunnel by stable handle
// and port index (spec.md §9 design note: "never direct pointers").
type TunnelPeer struct {
	Handle api.Handle
	Index  int
}

// Mark is a pending MarkBuffer token awaiting an input header to ride
// out on (spec.md §4.2, §4.3.1).
type Mark struct {
	TargetComponent api.Handle
	Data            any
}

// Port owns its buffer-header list membership via api.BufferHeader.Slot,
// its parameter set accessor, and its tunnel/mark state. The kernel
// owns the ingress/egress storage; Port only validates and allocates.
type Port struct {
	Index  int
	Dir    api.PortDir
	Domain api.PortDomain
	Flags  Flags

	BufferCount int // negotiated buffer_count for this port
	BufferSize  int // negotiated per-buffer size

	claimedCount int
	headers      []*api.BufferHeader

	Peer *TunnelPeer

	marks *queue.Queue

	// Slaving: MasterIndex/SlaveIndex reference paired ports by index
	// within the same component (spec.md §4.2 "master or slave of
	// another"); -1 means unpaired.
	MasterIndex int
	SlaveIndex  int

	pool api.BufferPool

	// ManagedIndices records which indices this port manages, as
	// answered by FindIndex; callers supply this from their parameter
	// table (spec.md §4.3.5).
	ManagedIndices map[api.IndexType]bool

	// params backs GetParameter/SetParameter/GetConfig/SetConfig for
	// every index this port manages (spec.md §4.3.5: "Delegation to
	// the port performs the actual work"). A concrete component seeds
	// this with its domain-specific parameter structs at construction.
	params map[api.IndexType]any

	// extByName backs GetExtensionIndex (spec.md §6: "resolved by
	// asking each port in turn, then the config port").
	extByName map[string]api.IndexType
}

// New creates a Port bound to a buffer pool for UseBuffer/AllocateBuffer
// backing memory.
func New(index int, dir api.PortDir, domain api.PortDomain, pool api.BufferPool) *Port {
	return &Port{
		Index:          index,
		Dir:            dir,
		Domain:         domain,
		BufferCount:    0,
		marks:          queue.New(),
		MasterIndex:    -1,
		SlaveIndex:     -1,
		pool:           pool,
		ManagedIndices: make(map[api.IndexType]bool),
		params:         make(map[api.IndexType]any),
		extByName:      make(map[string]api.IndexType),
	}
}

// RegisterExtension binds a vendor extension name to idx, so
// GetExtensionIndex can resolve it later (spec.md §6).
func (p *Port) RegisterExtension(name string, idx api.IndexType) {
	p.extByName[name] = idx
}

// ExtensionIndex answers whether this port owns the named extension.
func (p *Port) ExtensionIndex(name string) (api.IndexType, bool) {
	idx, ok := p.extByName[name]
	return idx, ok
}

// SetManagedParam registers idx as managed by this port with an
// initial value, the way a concrete component seeds its domain
// parameter structs at construction (spec.md §4.3.5).
func (p *Port) SetManagedParam(idx api.IndexType, value any) {
	p.ManagedIndices[idx] = true
	p.params[idx] = value
}

// GetParameter returns the stored value for idx, or UnsupportedIndex
// if this port holds no value for it.
func (p *Port) GetParameter(idx api.IndexType) (any, api.ErrorType) {
	v, ok := p.params[idx]
	if !ok {
		return nil, api.ErrorUnsupportedIndex
	}
	return v, api.ErrorNone
}

// SetParameter stores value for idx, returning UnsupportedIndex if
// this port does not manage it.
func (p *Port) SetParameter(idx api.IndexType, value any) api.ErrorType {
	if !p.ManagedIndices[idx] {
		return api.ErrorUnsupportedIndex
	}
	p.params[idx] = value
	return api.ErrorNone
}

// FindIndex answers whether this port manages idx (spec.md §4.2).
func (p *Port) FindIndex(idx api.IndexType) bool {
	return p.ManagedIndices[idx]
}

// UseBuffer attaches a host-allocated buffer. A tunneled, non-supplier
// port must refuse (spec.md §4.2, invariant 3).
func (p *Port) UseBuffer(buf []byte, appPrivate any) (*api.BufferHeader, api.ErrorType) {
	if p.Flags.Tunneled && !p.Flags.Supplier {
		return nil, api.ErrorTunnelingUnsupported
	}
	hdr := &api.BufferHeader{
		Buffer:     api.Buffer{Data: buf},
		AllocLen:   len(buf),
		AppPrivate: appPrivate,
	}
	p.attach(hdr)
	return hdr, api.ErrorNone
}

// AllocateBuffer creates a buffer internally from the port's bound
// pool (allocator-port semantics).
func (p *Port) AllocateBuffer(size int, appPrivate any) (*api.BufferHeader, api.ErrorType) {
	if p.Flags.Tunneled && !p.Flags.Supplier {
		return nil, api.ErrorTunnelingUnsupported
	}
	if p.pool == nil {
		return nil, api.ErrorInsufficientResources
	}
	buf := p.pool.Get(size)
	hdr := &api.BufferHeader{
		Buffer:     buf,
		AllocLen:   size,
		AppPrivate: appPrivate,
	}
	p.attach(hdr)
	return hdr, api.ErrorNone
}

// FreeBuffer releases a previously attached header; returns
// BadParameter if hdr does not belong to this port.
func (p *Port) FreeBuffer(hdr *api.BufferHeader) api.ErrorType {
	for i, h := range p.headers {
		if h == hdr {
			p.headers = append(p.headers[:i], p.headers[i+1:]...)
			hdr.Buffer.Release()
			p.recheckPopulation()
			return api.ErrorNone
		}
	}
	return api.ErrorBadParameter
}

// unboundPortIndex marks whichever of InputPortIndex/OutputPortIndex
// does not apply to a header, so port-index-0 headers are never
// mistaken for the other direction (both fields default to the Go
// zero value, which collides with a legitimate index 0).
const unboundPortIndex = -1

func (p *Port) attach(hdr *api.BufferHeader) {
	hdr.SetSlot(api.SlotAtHost)
	if p.Dir == api.DirInput {
		hdr.InputPortIndex = p.Index
		hdr.OutputPortIndex = unboundPortIndex
	} else {
		hdr.OutputPortIndex = p.Index
		hdr.InputPortIndex = unboundPortIndex
	}
	p.headers = append(p.headers, hdr)
	p.recheckPopulation()
}

func (p *Port) recheckPopulation() {
	p.Flags.Populated = len(p.headers) == p.BufferCount && p.BufferCount > 0
}

// Populate eagerly allocates all BufferCount headers for an allocator
// port; non-allocator ports are left to UseBuffer. Backing memory a
// header still lacks is filled in by the kernel on its first claim.
func (p *Port) Populate() api.ErrorType {
	if p.BufferCount == 0 {
		// Ports allowed zero buffers settle at fully-unpopulated and
		// are considered populated trivially (SPEC_FULL.md §5,
		// kernel.PopulationStatus "may be fully unpopulated").
		p.Flags.Populated = true
		return api.ErrorNone
	}
	if !p.Flags.Allocator {
		// Non-allocator ports populate only via UseBuffer from the
		// host or tunnel peer; nothing to do here.
		return api.ErrorNone
	}
	for len(p.headers) < p.BufferCount {
		if _, errc := p.AllocateBuffer(p.BufferSize, nil); errc != api.ErrorNone {
			return errc
		}
	}
	return api.ErrorNone
}

// Depopulate frees every header currently owned by this port.
func (p *Port) Depopulate() api.ErrorType {
	for _, h := range append([]*api.BufferHeader(nil), p.headers...) {
		if errc := p.FreeBuffer(h); errc != api.ErrorNone {
			return errc
		}
	}
	p.Flags.Populated = false
	return api.ErrorNone
}

// ClaimedCount returns the number of headers currently claimed by the
// processor (spec.md invariant 2).
func (p *Port) ClaimedCount() int { return p.claimedCount }

// IncClaimed/DecClaimed adjust the claimed-count; called by the
// kernel around claim_buffer/release_buffer.
func (p *Port) IncClaimed() { p.claimedCount++ }
func (p *Port) DecClaimed() {
	if p.claimedCount > 0 {
		p.claimedCount--
	}
}

// HeaderCount returns the number of headers currently owned by this
// port (conservation bookkeeping).
func (p *Port) HeaderCount() int { return len(p.headers) }

// Headers returns a copy of the headers currently owned by this port,
// for the kernel to prime ingress/egress on a tunneled-supplier port
// ahead of the first buffer exchange (spec.md §4.3.3 prepare_to_transfer).
func (p *Port) Headers() []*api.BufferHeader {
	out := make([]*api.BufferHeader, len(p.headers))
	copy(out, p.headers)
	return out
}

// PushMark enqueues a pending mark (spec.md §4.3.1 MarkBuffer).
func (p *Port) PushMark(m Mark) {
	p.marks.Add(m)
}

// MarkBuffer attaches the next pending mark, if any, to an input
// header; returns ok=false when no mark is pending (spec.md §4.2).
func (p *Port) MarkBuffer(hdr *api.BufferHeader) (Mark, bool) {
	if p.marks.Length() == 0 {
		return Mark{}, false
	}
	m := p.marks.Remove().(Mark)
	hdr.SetMark(m.TargetComponent, m.Data)
	return m, true
}

// ApplySlavingBehaviour mirrors a SetParameter on this port to its
// slave/master pair, per spec.md §4.2. paired is the other port in
// the same component; apply returns the changed index (or false if
// nothing changed) so the kernel can emit one PortSettingsChanged.
func (p *Port) ApplySlavingBehaviour(paired *Port, apply func(src, dst *Port) (api.IndexType, bool)) (api.IndexType, bool) {
	if paired == nil {
		return 0, false
	}
	return apply(p, paired)
}
