// File: kernel/buffers.go
// Author: momentics <momentics@gmail.com>
//
// UseBuffer/AllocateBuffer/FreeBuffer are the host-facing buffer
// management entry points (spec.md §4.2): they delegate to the target
// port, then re-check whether the in-flight FSM substate's completion
// predicate now holds (spec.md §4.3.4).

package kernel

import "github.com/tizonia/omxcore/api"

// UseBuffer attaches a host-allocated buffer to port portIndex.
func (k *Kernel) UseBuffer(portIndex int, buf []byte, appPrivate any) (*api.BufferHeader, api.ErrorType) {
	p, _, ok := k.portByIndex(portIndex)
	if !ok {
		return nil, api.ErrorBadPortIndex
	}
	hdr, errc := p.UseBuffer(buf, appPrivate)
	if errc == api.ErrorNone {
		k.CheckTransitionCompletion()
	}
	return hdr, errc
}

// AllocateBuffer creates a buffer internally on port portIndex.
func (k *Kernel) AllocateBuffer(portIndex int, size int, appPrivate any) (*api.BufferHeader, api.ErrorType) {
	p, _, ok := k.portByIndex(portIndex)
	if !ok {
		return nil, api.ErrorBadPortIndex
	}
	hdr, errc := p.AllocateBuffer(size, appPrivate)
	if errc == api.ErrorNone {
		k.CheckTransitionCompletion()
	}
	return hdr, errc
}

// FreeBuffer releases hdr from port portIndex.
func (k *Kernel) FreeBuffer(portIndex int, hdr *api.BufferHeader) api.ErrorType {
	p, _, ok := k.portByIndex(portIndex)
	if !ok {
		return api.ErrorBadPortIndex
	}
	errc := p.FreeBuffer(hdr)
	if errc == api.ErrorNone {
		k.CheckTransitionCompletion()
	}
	return errc
}
