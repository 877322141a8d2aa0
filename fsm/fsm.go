// File: fsm/fsm.go
// Author: momentics <momentics@gmail.com>
//
// FSM implements the component-level state-set protocol (spec.md
// §4.5): a 6x6 dispatch table indexed by (current, requested) state,
// each cell either a no-op, an immediate completion, or a named
// micro-step that leaves the component in a transient substate until
// the kernel observes the matching completion predicate.

package fsm

import (
	"fmt"
	"sync"

	"github.com/tizonia/omxcore/api"
)

// State mirrors OMX_STATETYPE.
type State int

const (
	StateInvalid State = iota
	StateLoaded
	StateIdle
	StateExecuting
	StatePause
	StateWaitForResources
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "Loaded"
	case StateIdle:
		return "Idle"
	case StateExecuting:
		return "Executing"
	case StatePause:
		return "Pause"
	case StateWaitForResources:
		return "WaitForResources"
	default:
		return "Invalid"
	}
}

// SubState names a transient cross-state transition in progress.
type SubState int

const (
	SubStateNone SubState = iota
	SubStateLoadedToIdle
	SubStateIdleToLoaded
	SubStateExecutingToIdle
	SubStatePauseToIdle
	SubStateIdleToExecuting
	SubStatePauseToExecuting
	SubStateExecutingToPause
	SubStateIdleToPause
)

func (s SubState) String() string {
	switch s {
	case SubStateLoadedToIdle:
		return "LoadedToIdle"
	case SubStateIdleToLoaded:
		return "IdleToLoaded"
	case SubStateExecutingToIdle:
		return "ExecutingToIdle"
	case SubStatePauseToIdle:
		return "PauseToIdle"
	case SubStateIdleToExecuting:
		return "IdleToExecuting"
	case SubStatePauseToExecuting:
		return "PauseToExecuting"
	case SubStateExecutingToPause:
		return "ExecutingToPause"
	case SubStateIdleToPause:
		return "IdleToPause"
	default:
		return "None"
	}
}

// cellKind classifies one (current, requested) dispatch table entry.
type cellKind int

const (
	cellInvalid cellKind = iota
	cellFalse            // no-op: rejected as an invalid transition
	cellTrue             // completes synchronously
	cellStep             // a named micro-step; completion is asynchronous
)

type cell struct {
	kind cellKind
	step string   // micro-step name, set only when kind == cellStep
	sub  SubState // substate entered while the step is pending
}

// table[current][requested] per spec.md §4.5's 6x6 layout. Index 0 is
// unused (reserved), matching the OMX state numbering the spec quotes.
var table = [6][6]cell{
	StateLoaded: {
		StateLoaded:           {kind: cellFalse},
		StateIdle:             {kind: cellStep, step: "loaded_to_idle", sub: SubStateLoadedToIdle},
		StateExecuting:        {kind: cellFalse},
		StatePause:            {kind: cellFalse},
		StateWaitForResources: {kind: cellTrue},
	},
	StateIdle: {
		StateLoaded:           {kind: cellStep, step: "idle_to_loaded", sub: SubStateIdleToLoaded},
		StateIdle:             {kind: cellFalse},
		StateExecuting:        {kind: cellStep, step: "idle_to_executing", sub: SubStateIdleToExecuting},
		StatePause:            {kind: cellStep, step: "idle_to_pause", sub: SubStateIdleToPause},
		StateWaitForResources: {kind: cellFalse},
	},
	StateExecuting: {
		StateLoaded:           {kind: cellFalse},
		StateIdle:             {kind: cellStep, step: "executing_to_idle", sub: SubStateExecutingToIdle},
		StateExecuting:        {kind: cellTrue},
		StatePause:            {kind: cellStep, step: "executing_to_pause", sub: SubStateExecutingToPause},
		StateWaitForResources: {kind: cellFalse},
	},
	StatePause: {
		StateLoaded:           {kind: cellFalse},
		StateIdle:             {kind: cellStep, step: "pause_to_idle", sub: SubStatePauseToIdle},
		StateExecuting:        {kind: cellStep, step: "pause_to_executing", sub: SubStatePauseToExecuting},
		StatePause:            {kind: cellFalse},
		StateWaitForResources: {kind: cellFalse},
	},
	StateWaitForResources: {
		StateLoaded:           {kind: cellTrue},
		StateIdle:             {kind: cellFalse},
		StateExecuting:        {kind: cellFalse},
		StatePause:            {kind: cellFalse},
		StateWaitForResources: {kind: cellFalse},
	},
}

// Steps is the set of micro-step callbacks the kernel/processor must
// supply; named exactly as the dispatch table's step field so a
// missing entry fails loudly at FSM construction.
type Steps map[string]func() error

// FSM tracks one component's current state and, while a transition is
// in flight, its substate.
type FSM struct {
	mu       sync.Mutex
	current  State
	sub      SubState
	requested State
	steps    Steps
	onEvent  func(api.CommandType, uint32) // issue_trans_event/issue_cmd_event sink

	// tracer, when set via SetTracer, receives one span per requested
	// transition, tagged with the from/to state and the dispatch-table
	// cell kind, for debug instrumentation.
	tracer api.Tracer
}

// SetTracer installs t as the sink for one span per RequestTransition
// call. Nil disables tracing (the default).
func (f *FSM) SetTracer(t api.Tracer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracer = t
}

// New creates an FSM starting in Loaded, per spec.md §3 ("Components
// are instantiated in state Loaded with no resources").
func New(steps Steps, onEvent func(api.CommandType, uint32)) *FSM {
	return &FSM{
		current: StateLoaded,
		steps:   steps,
		onEvent: onEvent,
	}
}

// Current returns the component's settled state.
func (f *FSM) Current() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// SubStateInProgress reports the in-flight substate, or SubStateNone
// if no transition is pending.
func (f *FSM) SubStateInProgress() SubState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sub
}

// RequestTransition begins a StateSet(requested) per spec.md §4.5.
// While a substate is already pending, any further RequestTransition
// is rejected as an invalid state operation (spec.md §4.5: "Intermediate
// SendCommand(StateSet) while in a substate is rejected as invalid").
func (f *FSM) RequestTransition(requested State) api.ErrorType {
	f.mu.Lock()
	tracer := f.tracer
	from := f.current
	f.mu.Unlock()

	var span api.Span
	if tracer != nil {
		span = tracer.StartSpan("fsm.transition")
		span.SetTag("from", from.String())
		span.SetTag("to", requested.String())
		defer span.Finish()
	}

	f.mu.Lock()

	if f.sub != SubStateNone {
		f.mu.Unlock()
		return api.ErrorIncorrectStateOperation
	}
	if requested < StateLoaded || requested > StateWaitForResources {
		f.mu.Unlock()
		return api.ErrorBadParameter
	}
	c := table[f.current][requested]
	if span != nil {
		span.SetTag("kind", c.kind)
	}
	switch c.kind {
	case cellFalse, cellInvalid:
		f.mu.Unlock()
		return api.ErrorIncorrectStateTransition
	case cellTrue:
		f.current = requested
		onEvent := f.onEvent
		f.mu.Unlock()
		if onEvent != nil {
			onEvent(api.CommandStateSet, uint32(requested))
		}
		return api.ErrorNone
	case cellStep:
		step, ok := f.steps[c.step]
		if !ok {
			f.mu.Unlock()
			return api.ErrorNotImplemented
		}
		f.sub = c.sub
		f.requested = requested
		// step may re-enter the FSM (e.g. the kernel checking whether
		// its own completion predicate now holds), so the lock must be
		// released before calling it — sync.Mutex is not reentrant.
		f.mu.Unlock()
		if err := step(); err != nil {
			f.mu.Lock()
			f.sub = SubStateNone
			f.mu.Unlock()
			return api.ErrorInsufficientResources
		}
		return api.ErrorNone
	default:
		f.mu.Unlock()
		return api.ErrorIncorrectStateTransition
	}
}

// CompleteTransition is called by the kernel when the completion
// predicate for the in-flight substate holds (spec.md §4.3.4, §4.5).
// It settles current to the previously requested state, clears the
// substate, and emits exactly one CmdComplete.
func (f *FSM) CompleteTransition() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sub == SubStateNone {
		return fmt.Errorf("fsm: CompleteTransition called with no transition pending")
	}
	f.current = f.requested
	f.sub = SubStateNone
	if f.onEvent != nil {
		f.onEvent(api.CommandStateSet, uint32(f.current))
	}
	return nil
}

// AbortTransition clears a pending substate without completing it
// (used when resource allocation fails mid-flight).
func (f *FSM) AbortTransition() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sub = SubStateNone
}
