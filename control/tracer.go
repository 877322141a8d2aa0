// control/tracer.go
// Author: momentics <momentics@gmail.com>
//
// A minimal in-process api.Tracer: one ring of finished spans kept for
// inspection via DebugProbes, no external collector. The FSM emits one
// span per state transition (from-state, to-state, dispatch-table
// cell kind) through this instead of wiring a distributed tracer the
// rest of the stack has no transport for.

package control

import (
	"errors"
	"sync"

	"github.com/tizonia/omxcore/api"
)

// Span is the control package's api.Span implementation: a flat set
// of string tags plus log fields, finished exactly once.
type Span struct {
	name   string
	tags   map[string]any
	fields []map[string]any
	onDone func(*Span)
	done   bool
	mu     sync.Mutex
}

// SetTag records a tag on the span.
func (s *Span) SetTag(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tags == nil {
		s.tags = make(map[string]any)
	}
	s.tags[key] = value
}

// Log appends a set of fields to the span's log.
func (s *Span) Log(fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = append(s.fields, fields)
}

// Context returns the tags recorded so far, the only propagation
// surface this in-process tracer supports.
func (s *Span) Context() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.tags))
	for k, v := range s.tags {
		out[k] = v
	}
	return out
}

// Finish marks the span complete and hands it to the owning Tracer's
// ring buffer exactly once.
func (s *Span) Finish() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()
	if s.onDone != nil {
		s.onDone(s)
	}
}

// Tracer keeps the last N finished spans for debug inspection
// (wired into DebugProbes under the "tracer.spans" probe).
type Tracer struct {
	mu      sync.Mutex
	spans   []*Span
	maxKept int
}

// NewTracer creates a Tracer retaining up to maxKept finished spans.
func NewTracer(maxKept int) *Tracer {
	if maxKept <= 0 {
		maxKept = 64
	}
	return &Tracer{maxKept: maxKept}
}

// StartSpan begins a span named name; SpanOption is unused by this
// tracer (no sampling/baggage policy to apply).
func (t *Tracer) StartSpan(name string, _ ...api.SpanOption) api.Span {
	return &Span{name: name, onDone: t.record}
}

func (t *Tracer) record(s *Span) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = append(t.spans, s)
	if len(t.spans) > t.maxKept {
		t.spans = t.spans[len(t.spans)-t.maxKept:]
	}
}

// Inject copies the span's tags into carrier.
func (t *Tracer) Inject(span api.Span, carrier map[string]any) {
	for k, v := range span.Context() {
		carrier[k] = v
	}
}

// Extract builds a detached span pre-populated from carrier, useful
// for a tunnel peer continuing a trace started by this component.
func (t *Tracer) Extract(carrier map[string]any) (api.Span, error) {
	if carrier == nil {
		return nil, errors.New("control: nil trace carrier")
	}
	s := &Span{name: "extracted", onDone: t.record, tags: make(map[string]any, len(carrier))}
	for k, v := range carrier {
		s.tags[k] = v
	}
	return s, nil
}

var (
	_ api.Tracer = (*Tracer)(nil)
	_ api.Span   = (*Span)(nil)
)

// Snapshot reports the finished spans currently retained, most recent
// last.
func (t *Tracer) Snapshot() []map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]map[string]any, len(t.spans))
	for i, s := range t.spans {
		out[i] = s.Context()
	}
	return out
}
