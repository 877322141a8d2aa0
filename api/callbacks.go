// File: api/callbacks.go
// Author: momentics <momentics@gmail.com>
//
// Host-facing callback contract and the component handle type. A
// Handle replaces the C core's raw OMX_HANDLETYPE pointer with an
// arena-style identifier (spec.md §9: "Raw pointer graphs... use arena
// indexing"), generated with google/uuid the same way ManuGH-xg2g and
// beluga-ai mint request/session identifiers.

package api

import "github.com/google/uuid"

// Handle identifies a component instance. Tunnel peers and mark targets
// reference components only by Handle, never by pointer.
type Handle uuid.UUID

// NewHandle mints a fresh component handle.
func NewHandle() Handle { return Handle(uuid.New()) }

func (h Handle) String() string { return uuid.UUID(h).String() }

// IsZero reports whether this handle was never assigned.
func (h Handle) IsZero() bool { return uuid.UUID(h) == uuid.Nil }

// EventHandler receives asynchronous component events.
type EventHandlerFunc func(event EventType, data1, data2 uint32, eventData any)

// BufferDoneFunc receives a returned buffer header (Empty/FillBufferDone).
type BufferDoneFunc func(hdr *BufferHeader)

// Callbacks bundles the three host callbacks every component is
// constructed with, mirroring OMX_CALLBACKTYPE.
type Callbacks struct {
	EventHandler    EventHandlerFunc
	EmptyBufferDone BufferDoneFunc
	FillBufferDone  BufferDoneFunc
}
