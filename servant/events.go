// File: servant/events.go
// Author: momentics <momentics@gmail.com>
//
// Event issuance helpers: the component-facing half of the OMX
// callback contract (spec.md §5, §7). These wrap api.Callbacks.
// EventHandler/EmptyBufferDone/FillBufferDone so kernel/processor
// code issues events without touching the callback struct directly.

package servant

import "github.com/tizonia/omxcore/api"

// Events issues host callbacks for one component.
type Events struct {
	cb api.Callbacks
}

// NewEvents wraps cb for issuance helpers.
func NewEvents(cb api.Callbacks) *Events {
	return &Events{cb: cb}
}

// IssueEvent invokes the generic EventHandler callback, if set.
func (e *Events) IssueEvent(event api.EventType, data1, data2 uint32, eventData any) {
	if e.cb.EventHandler != nil {
		e.cb.EventHandler(event, data1, data2, eventData)
	}
}

// IssueErrEvent reports an asynchronous error via EventError.
func (e *Events) IssueErrEvent(code api.ErrorType) {
	e.IssueEvent(api.EventError, uint32(code), 0, nil)
}

// IssueCmdEvent reports completion of a SendCommand request via
// EventCmdComplete.
func (e *Events) IssueCmdEvent(cmd api.CommandType, param uint32) {
	e.IssueEvent(api.EventCmdComplete, uint32(cmd), param, nil)
}

// IssueTransEvent reports an FSM state-transition completion, which
// is just a cmd-complete event for CommandStateSet.
func (e *Events) IssueTransEvent(param uint32) {
	e.IssueCmdEvent(api.CommandStateSet, param)
}

// IssueBufCallback invokes EmptyBufferDone or FillBufferDone for hdr.
func (e *Events) IssueBufCallback(hdr *api.BufferHeader, isOutput bool) {
	if isOutput {
		if e.cb.FillBufferDone != nil {
			e.cb.FillBufferDone(hdr)
		}
		return
	}
	if e.cb.EmptyBufferDone != nil {
		e.cb.EmptyBufferDone(hdr)
	}
}
