// File: component/dispatch.go
// Author: momentics <momentics@gmail.com>
//
// dispatch is the single entry point every queued servant.Message
// funnels through (spec.md §4, §6): it type-switches on Message.Kind
// and routes the payload to the matching kernel or processor method.
// Never called concurrently with itself — that invariant is what lets
// kernel.Kernel and the FSM skip locking almost everywhere.

package component

import (
	"sync/atomic"

	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/fsm"
	"github.com/tizonia/omxcore/servant"
)

func (c *Component) dispatch(m servant.Message) {
	n := atomic.AddInt64(&c.dispatchCounts[m.Kind], 1)
	c.Metrics.Set("dispatch."+m.Kind.String(), n)

	switch m.Kind {
	case servant.KindCommand:
		c.reportIfError(c.Kernel.HandleCommand(m.Command.Type, m.Command.Param, m.Command.ExtraData))

	case servant.KindEmptyThisBuffer:
		c.reportIfError(c.Kernel.EmptyThisBuffer(m.EmptyBuffer.PortIndex, m.EmptyBuffer.Header))

	case servant.KindFillThisBuffer:
		c.reportIfError(c.Kernel.FillThisBuffer(m.FillBuffer.PortIndex, m.FillBuffer.Header))

	case servant.KindCallback:
		pid := m.Callback.Header.InputPortIndex
		if m.Callback.IsOutput {
			pid = m.Callback.Header.OutputPortIndex
		}
		c.reportIfError(c.Kernel.Callback(pid, m.Callback.Header))

	case servant.KindPluggableEvent:
		if m.Pluggable != nil {
			c.Context.Set("last_pluggable_payload", m.Pluggable.Payload, false)
			if m.Pluggable.Fn != nil {
				m.Pluggable.Fn(c.Handle)
			}
		}

	case servant.KindBuffersReady:
		if c.Proc == nil || c.FSM.Current() != fsm.StateExecuting {
			return
		}
		c.reportIfError(c.Proc.BuffersReady())

	case servant.KindIOReady:
		if c.Proc != nil {
			c.reportIfError(c.Proc.IOReady(m.IOReady.WatcherID, m.IOReady.Events))
		}

	case servant.KindTimerReady:
		if c.Proc != nil {
			c.reportIfError(c.Proc.TimerReady(m.TimerReady.WatcherID))
		}

	case servant.KindStatReady:
		if c.Proc != nil {
			c.reportIfError(c.Proc.StatReady(m.StatReady.WatcherID))
		}
	}
}

// reportIfError turns a non-fatal synchronous error code surfaced
// while dispatching a queued message into an asynchronous Error event
// (spec.md §7: "anything discovered during an asynchronous message is
// turned into an Error event via issue_err_event").
func (c *Component) reportIfError(errc api.ErrorType) {
	if errc != api.ErrorNone && c.Events != nil {
		c.Events.IssueErrEvent(errc)
	}
}
