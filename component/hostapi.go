// File: component/hostapi.go
// Author: momentics <momentics@gmail.com>
//
// The uniform host-facing API every component exposes (spec.md §2,
// §6): GetParameter, SetParameter, SendCommand, UseBuffer,
// AllocateBuffer, FreeBuffer, EmptyThisBuffer, FillThisBuffer,
// ComponentTunnelRequest, GetState, GetConfig, SetConfig,
// GetExtensionIndex. SendCommand, EmptyThisBuffer and FillThisBuffer
// are wrapped into a Message and enqueued; every other call here runs
// synchronously against the kernel or FSM.

package component

import (
	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/fsm"
	"github.com/tizonia/omxcore/kernel"
	"github.com/tizonia/omxcore/port"
	"github.com/tizonia/omxcore/servant"
)

// GetState returns the component's current settled FSM state.
func (c *Component) GetState() fsm.State {
	return c.FSM.Current()
}

// SendCommand enqueues a SendCommand request at urgent priority
// (spec.md §4.1, §6); dispatching and the resulting CmdComplete happen
// asynchronously on this component's own servant.
func (c *Component) SendCommand(cmd api.CommandType, param int, extra any) api.ErrorType {
	m := c.newMessage()
	m.Kind = servant.KindCommand
	m.Command = &servant.CommandMsg{Type: cmd, Param: param, ExtraData: extra}
	errc := c.enqueue(*m)
	c.releaseMessage(m)
	return errc
}

// UseBuffer attaches a host-allocated buffer to portIndex.
func (c *Component) UseBuffer(portIndex int, buf []byte, appPrivate any) (*api.BufferHeader, api.ErrorType) {
	return c.Kernel.UseBuffer(portIndex, buf, appPrivate)
}

// AllocateBuffer creates a buffer internally on portIndex.
func (c *Component) AllocateBuffer(portIndex int, size int, appPrivate any) (*api.BufferHeader, api.ErrorType) {
	return c.Kernel.AllocateBuffer(portIndex, size, appPrivate)
}

// FreeBuffer releases hdr from portIndex.
func (c *Component) FreeBuffer(portIndex int, hdr *api.BufferHeader) api.ErrorType {
	return c.Kernel.FreeBuffer(portIndex, hdr)
}

// EmptyThisBuffer enqueues a bulk-priority ETB message (spec.md §4.1:
// "enqueue a buffer message with priority 2").
func (c *Component) EmptyThisBuffer(portIndex int, hdr *api.BufferHeader) api.ErrorType {
	m := c.newMessage()
	m.Kind = servant.KindEmptyThisBuffer
	m.EmptyBuffer = &servant.BufferMsg{PortIndex: portIndex, Header: hdr}
	errc := c.enqueue(*m)
	c.releaseMessage(m)
	return errc
}

// FillThisBuffer enqueues a bulk-priority FTB message.
func (c *Component) FillThisBuffer(portIndex int, hdr *api.BufferHeader) api.ErrorType {
	m := c.newMessage()
	m.Kind = servant.KindFillThisBuffer
	m.FillBuffer = &servant.BufferMsg{PortIndex: portIndex, Header: hdr}
	errc := c.enqueue(*m)
	c.releaseMessage(m)
	return errc
}

// ComponentTunnelRequest negotiates portIndex's tunnel (spec.md §6);
// teardown=true tears the tunnel down, ignoring peer and wantsSupply.
// Runs synchronously, matching OMX
// IL's own ComponentTunnelRequest call.
func (c *Component) ComponentTunnelRequest(portIndex int, peer port.TunnelPeer, wantsSupply bool, teardown bool) api.ErrorType {
	if teardown {
		return c.Kernel.ComponentTunnelRequest(portIndex, nil)
	}
	return c.Kernel.ComponentTunnelRequest(portIndex, &kernel.TunnelSetup{Peer: peer, WantsSupply: wantsSupply})
}

// GetParameter routes idx to the owning port or a kernel-level
// aggregate index (spec.md §4.3.5).
func (c *Component) GetParameter(idx api.IndexType) (any, api.ErrorType) {
	return c.Kernel.GetParameter(idx)
}

// SetParameter routes idx to the owning port, applying slaving on
// success (spec.md §4.2, §4.3.5).
func (c *Component) SetParameter(portIndex int, idx api.IndexType, value any) api.ErrorType {
	return c.Kernel.SetParameter(portIndex, idx, value)
}

// GetConfig routes idx the same way as GetParameter, plus the
// kernel-level metadata aggregate.
func (c *Component) GetConfig(idx api.IndexType) (any, api.ErrorType) {
	return c.Kernel.GetConfig(idx)
}

// SetConfig routes idx like SetParameter, then notifies the processor
// via ConfigChange (spec.md §4.3.5, §4.4).
func (c *Component) SetConfig(portIndex int, idx api.IndexType, value any) api.ErrorType {
	return c.Kernel.SetConfig(portIndex, idx, value)
}

// GetExtensionIndex resolves a vendor extension name by asking each
// port in turn, then the config port (spec.md §6).
func (c *Component) GetExtensionIndex(name string) (api.IndexType, api.ErrorType) {
	return c.Kernel.GetExtensionIndex(name)
}

// SubmitPluggableEvent enqueues a host-injected function to run
// serialized with this component's other messages (spec.md §6
// "Pluggable events").
func (c *Component) SubmitPluggableEvent(ev api.PluggableEvent) bool {
	return c.Servant.Push(ev)
}

// enqueue posts m on this component's servant queue, reporting
// InsufficientResources synchronously if the servant has been
// stopped (spec.md §7: resource errors surface via the return code).
func (c *Component) enqueue(m servant.Message) api.ErrorType {
	if !c.Servant.Enqueue(m) {
		return api.ErrorInsufficientResources
	}
	return api.ErrorNone
}
