// File: api/buffer_header.go
// Author: momentics <momentics@gmail.com>
//
// BufferHeader is the OMX_BUFFERHEADERTYPE descriptor: the unit of data
// flow between host, ports, processor and tunneled peers. Ownership of a
// header at any instant is semantic, tracked by Slot, never by which
// Go value happens to hold a pointer to it (spec.md §9, "Ownership of
// buffer headers is semantic, not syntactic").

package api

import "time"

// Slot tags the current owner of a BufferHeader. Exactly one Slot applies
// to a given header at any observation point (spec.md §3 invariant 1).
type Slot int

const (
	SlotAtHost Slot = iota
	SlotIngress
	SlotEgress
	SlotClaimed
	SlotAtPeer
)

func (s Slot) String() string {
	switch s {
	case SlotAtHost:
		return "AtHost"
	case SlotIngress:
		return "Ingress"
	case SlotEgress:
		return "Egress"
	case SlotClaimed:
		return "Claimed"
	case SlotAtPeer:
		return "AtPeer"
	default:
		return "Unknown"
	}
}

// Buffer flag bits, mirroring OMX_BUFFERFLAG_*.
const (
	FlagEOS uint32 = 1 << iota
	FlagStartTime
	FlagDecodeOnly
	FlagDataCorrupt
	FlagCodecConfig
	FlagExtraData
)

// BufferHeader mirrors OMX_BUFFERHEADERTYPE field-for-field per spec.md §3.
type BufferHeader struct {
	Buffer              Buffer // backing memory, zero-copy
	AllocLen            int
	FilledLen           int
	Offset              int
	Flags               uint32
	InputPortIndex      int
	OutputPortIndex     int
	AppPrivate          any
	TickCount           uint32
	Timestamp           time.Duration
	MarkTargetComponent Handle
	MarkData            any

	// slot is owned by the kernel/port bookkeeping, never mutated
	// directly by a processor — claim/release go through the kernel API
	// (spec.md §4.4).
	slot Slot

	// marked is true from the moment Port.MarkBuffer attaches a pending
	// mark until the kernel reports it via EventMark, so the mark
	// round-trip (spec.md §8) fires exactly once per attachment even
	// though MarkTargetComponent/MarkData remain set on the header
	// afterward.
	marked bool
}

// Slot reports the header's current owner.
func (h *BufferHeader) Slot() Slot { return h.slot }

// SetSlot is an internal bookkeeping hook used by port/kernel only.
func (h *BufferHeader) SetSlot(s Slot) { h.slot = s }

// HasFlag reports whether the given flag bit is set.
func (h *BufferHeader) HasFlag(flag uint32) bool { return h.Flags&flag != 0 }

// SetMark attaches a pending mark's target/data and flags it
// unreported; called by Port.MarkBuffer when a mark rides out on an
// input header (spec.md §4.2, §4.3.1).
func (h *BufferHeader) SetMark(target Handle, data any) {
	h.MarkTargetComponent = target
	h.MarkData = data
	h.marked = true
}

// HasMark reports whether this header carries a mark not yet reported
// via EventMark.
func (h *BufferHeader) HasMark() bool { return h.marked }

// ClearMark marks the attached mark as reported, so a header that
// keeps flowing through the component after its mark event fires
// never re-triggers EventMark.
func (h *BufferHeader) ClearMark() { h.marked = false }

// MarkEventData is the eventData payload delivered alongside EventMark
// (spec.md §8 "Mark round-trip"): the mark's target component handle
// and caller-supplied data, exactly as attached by Port.MarkBuffer.
type MarkEventData struct {
	Target Handle
	Data   any
}
