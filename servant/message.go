// File: servant/message.go
// Author: momentics <momentics@gmail.com>
//
// Message is the tagged union dispatched through a component's
// servant loop (spec.md §4, §6). Each concrete kind below corresponds
// to exactly one entry point the kernel or processor must react to.

package servant

import "github.com/tizonia/omxcore/api"

// Kind discriminates the concrete payload carried by a Message.
type Kind int

const (
	KindCommand Kind = iota
	KindEmptyThisBuffer
	KindFillThisBuffer
	KindCallback
	KindPluggableEvent
	KindBuffersReady
	KindIOReady
	KindTimerReady
	KindStatReady
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "Command"
	case KindEmptyThisBuffer:
		return "EmptyThisBuffer"
	case KindFillThisBuffer:
		return "FillThisBuffer"
	case KindCallback:
		return "Callback"
	case KindPluggableEvent:
		return "PluggableEvent"
	case KindBuffersReady:
		return "BuffersReady"
	case KindIOReady:
		return "IOReady"
	case KindTimerReady:
		return "TimerReady"
	case KindStatReady:
		return "StatReady"
	default:
		return "Unknown"
	}
}

// Message wraps one dispatch-queue entry. Exactly one of the typed
// payload fields is populated, matching Kind.
type Message struct {
	Kind     Kind
	Priority int

	Command      *CommandMsg
	EmptyBuffer  *BufferMsg
	FillBuffer   *BufferMsg
	Callback     *CallbackMsg
	Pluggable    *api.PluggableEvent
	BuffersReady *BuffersReadyMsg
	IOReady      *IOReadyMsg
	TimerReady   *TimerReadyMsg
	StatReady    *StatReadyMsg
}

// CommandMsg carries an OMX_SendCommand request (spec.md §5).
type CommandMsg struct {
	Type      api.CommandType
	Param     int
	ExtraData any
}

// BufferMsg carries an EmptyThisBuffer/FillThisBuffer request.
type BufferMsg struct {
	PortIndex int
	Header    *api.BufferHeader
}

// CallbackMsg carries a deferred EmptyBufferDone/FillBufferDone
// callback invocation, dispatched at bulk priority so buffer returns
// never starve urgent command processing.
type CallbackMsg struct {
	Header   *api.BufferHeader
	IsOutput bool
}

// BuffersReadyMsg notifies the processor that one or more ports have
// buffers available to drive transfer_and_process.
type BuffersReadyMsg struct {
	PortIndex int
}

// IOReadyMsg notifies the processor that a registered I/O watcher
// fired (spec.md §4.1 io_watcher_init/start).
type IOReadyMsg struct {
	WatcherID int
	Events    uint32
}

// TimerReadyMsg notifies the processor that a registered timer
// watcher fired (spec.md §4.1 timer_watcher_init/start).
type TimerReadyMsg struct {
	WatcherID int
}

// StatReadyMsg notifies the processor of a periodic stat collection
// tick.
type StatReadyMsg struct {
	WatcherID int
}

// priorityOf assigns the dispatch-queue priority band for a message,
// mirroring the urgent/normal/bulk split (spec.md §4.1, §6).
func priorityOf(m Message) int {
	switch m.Kind {
	case KindCommand:
		return api.PriorityOf(m.Command.Type)
	case KindBuffersReady, KindPluggableEvent:
		return api.PriorityNormal
	default:
		return api.PriorityBulk
	}
}
