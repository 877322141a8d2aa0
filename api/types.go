// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared OMX IL enumerations and scalar constants used across every
// package of the component runtime: error codes, event types, command
// types, state types and port domains/directions.

package api

// ErrorType mirrors the subset of OMX_ERRORTYPE this runtime reports
// synchronously from host API entry points.
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorBadPortIndex
	ErrorIncorrectStateOperation
	ErrorInsufficientResources
	ErrorUnsupportedIndex
	ErrorContentURIError
	ErrorPortUnpopulated
	ErrorNotReady
	ErrorNoMore
	ErrorFormatNotDetected
	ErrorNotImplemented
	ErrorBadParameter
	ErrorComponentNotFound
	ErrorInvalidState
	ErrorTunnelingUnsupported
	ErrorPortsNotCompatible
	ErrorIncorrectStateTransition
)

func (e ErrorType) String() string {
	switch e {
	case ErrorNone:
		return "None"
	case ErrorBadPortIndex:
		return "BadPortIndex"
	case ErrorIncorrectStateOperation:
		return "IncorrectStateOperation"
	case ErrorInsufficientResources:
		return "InsufficientResources"
	case ErrorUnsupportedIndex:
		return "UnsupportedIndex"
	case ErrorContentURIError:
		return "ContentURIError"
	case ErrorPortUnpopulated:
		return "PortUnpopulated"
	case ErrorNotReady:
		return "NotReady"
	case ErrorNoMore:
		return "NoMore"
	case ErrorFormatNotDetected:
		return "FormatNotDetected"
	case ErrorNotImplemented:
		return "NotImplemented"
	case ErrorBadParameter:
		return "BadParameter"
	case ErrorComponentNotFound:
		return "ComponentNotFound"
	case ErrorInvalidState:
		return "InvalidState"
	case ErrorTunnelingUnsupported:
		return "TunnelingUnsupported"
	case ErrorPortsNotCompatible:
		return "PortsNotCompatible"
	case ErrorIncorrectStateTransition:
		return "IncorrectStateTransition"
	default:
		return "Unknown"
	}
}

// EventType mirrors OMX_EVENTTYPE, the vocabulary for EventHandler callbacks.
type EventType int

const (
	EventCmdComplete EventType = iota
	EventError
	EventPortSettingsChanged
	EventBufferFlag
	EventIndexSettingChanged
	EventMark
)

func (e EventType) String() string {
	switch e {
	case EventCmdComplete:
		return "CmdComplete"
	case EventError:
		return "Error"
	case EventPortSettingsChanged:
		return "PortSettingsChanged"
	case EventBufferFlag:
		return "BufferFlag"
	case EventIndexSettingChanged:
		return "IndexSettingChanged"
	case EventMark:
		return "Mark"
	default:
		return "Unknown"
	}
}

// CommandType mirrors OMX_COMMANDTYPE, the vocabulary for SendCommand.
type CommandType int

const (
	CommandStateSet CommandType = iota
	CommandFlush
	CommandPortDisable
	CommandPortEnable
	CommandMarkBuffer
)

func (c CommandType) String() string {
	switch c {
	case CommandStateSet:
		return "StateSet"
	case CommandFlush:
		return "Flush"
	case CommandPortDisable:
		return "PortDisable"
	case CommandPortEnable:
		return "PortEnable"
	case CommandMarkBuffer:
		return "MarkBuffer"
	default:
		return "Unknown"
	}
}

// Priority levels for servant message dispatch. Lower value dispatches first.
const (
	PriorityUrgent = 0 // StateSet, Flush, PortDisable, PortEnable, MarkBuffer
	PriorityNormal = 1 // pluggable events, buffers-ready
	PriorityBulk   = 2 // ETB/FTB, buffer callbacks
)

// PriorityOf returns the dispatch priority band for a SendCommand
// request. Every CommandType is urgent: commands always preempt
// buffer traffic (spec.md §4.1, §6).
func PriorityOf(c CommandType) int {
	return PriorityUrgent
}

// PortDir mirrors OMX_DIRTYPE.
type PortDir int

const (
	DirInput PortDir = iota
	DirOutput
)

func (d PortDir) String() string {
	if d == DirInput {
		return "Input"
	}
	return "Output"
}

// PortDomain mirrors OMX_PORTDOMAINTYPE.
type PortDomain int

const (
	DomainAudio PortDomain = iota
	DomainVideo
	DomainImage
	DomainOther
)

func (d PortDomain) String() string {
	switch d {
	case DomainAudio:
		return "Audio"
	case DomainVideo:
		return "Video"
	case DomainImage:
		return "Image"
	default:
		return "Other"
	}
}

// PortIndexAll is the OMX_ALL sentinel: SendCommand targets every port at once.
const PortIndexAll = -1

// IndexType enumerates well-known GetParameter/SetParameter/GetConfig/
// SetConfig indices this runtime routes without delegating to a port.
type IndexType int

const (
	IndexParamAudioInit IndexType = iota
	IndexParamVideoInit
	IndexParamImageInit
	IndexParamOtherInit
	IndexConfigTunneledPortStatus
	IndexConfigMetadataItem
	IndexPortDefinition
	IndexParamPortDomain
)
