// File: processor/processor.go
// Author: momentics <momentics@gmail.com>
//
// Processor is the user-supplied logic contract (spec.md §4.4): a
// concrete codec/source/renderer implements this interface; the
// kernel and FSM drive it through state-triggered hooks. The
// processor never touches ingress/egress lists directly — it reaches
// buffer headers only through KernelAPI's claim/release/claim-eglimage
// calls, matching "the processor never touches ingress/egress lists
// directly" verbatim.

package processor

import "github.com/tizonia/omxcore/api"

// KernelAPI is the buffer-facing surface a Processor may call. A
// kernel.Kernel implements this; processor never imports kernel
// directly, avoiding an import cycle and matching the "accept
// interfaces" idiom.
type KernelAPI interface {
	// ClaimBuffer takes ingress[pos] out for port pid. For output
	// allocator ports this may lazily populate the header's backing
	// memory. For input ports it may ride a pending mark. Increments
	// the port's claimed-count.
	ClaimBuffer(pid int, pos int) (*api.BufferHeader, api.ErrorType)

	// ReleaseBuffer enqueues a Callback message for hdr; the kernel
	// moves it onto egress asynchronously.
	ReleaseBuffer(pid int, hdr *api.BufferHeader) api.ErrorType

	// ClaimEGLImage resolves a GPU-backed tunnel peer image for hdr.
	ClaimEGLImage(pid int, hdr *api.BufferHeader) (any, api.ErrorType)
}

// Processor is the virtual interface specialized per component
// (spec.md §4.4's hook table).
type Processor interface {
	AllocateResources(pid int) api.ErrorType
	DeallocateResources() api.ErrorType
	PrepareToTransfer(pid int) api.ErrorType
	TransferAndProcess(pid int) api.ErrorType
	StopAndReturn() api.ErrorType

	// BuffersReady is called whenever the kernel has appended to
	// ingress while the component is Executing and the port is not
	// disabled/being-disabled. Must not be called in Pause.
	BuffersReady() api.ErrorType

	Pause() api.ErrorType
	Resume() api.ErrorType

	PortFlush(pid int) api.ErrorType
	PortDisable(pid int) api.ErrorType
	PortEnable(pid int) api.ErrorType

	ConfigChange(pid int, idx api.IndexType) api.ErrorType

	IOReady(watcherID int, events uint32) api.ErrorType
	TimerReady(watcherID int) api.ErrorType
	StatReady(watcherID int) api.ErrorType
}

// Base provides no-op defaults for every Processor hook so a concrete
// processor can embed Base and override only what it needs, the way
// a minimal source/decoder plugin would.
type Base struct {
	Kernel KernelAPI
}

func (b *Base) AllocateResources(pid int) api.ErrorType   { return api.ErrorNone }
func (b *Base) DeallocateResources() api.ErrorType        { return api.ErrorNone }
func (b *Base) PrepareToTransfer(pid int) api.ErrorType   { return api.ErrorNone }
func (b *Base) TransferAndProcess(pid int) api.ErrorType  { return api.ErrorNone }
func (b *Base) StopAndReturn() api.ErrorType              { return api.ErrorNone }
func (b *Base) BuffersReady() api.ErrorType                { return api.ErrorNone }
func (b *Base) Pause() api.ErrorType                      { return api.ErrorNone }
func (b *Base) Resume() api.ErrorType                     { return api.ErrorNone }
func (b *Base) PortFlush(pid int) api.ErrorType           { return api.ErrorNone }
func (b *Base) PortDisable(pid int) api.ErrorType         { return api.ErrorNone }
func (b *Base) PortEnable(pid int) api.ErrorType          { return api.ErrorNone }
func (b *Base) ConfigChange(pid int, idx api.IndexType) api.ErrorType { return api.ErrorNone }
func (b *Base) IOReady(watcherID int, events uint32) api.ErrorType    { return api.ErrorNone }
func (b *Base) TimerReady(watcherID int) api.ErrorType    { return api.ErrorNone }
func (b *Base) StatReady(watcherID int) api.ErrorType     { return api.ErrorNone }

var _ Processor = (*Base)(nil)
