// File: processor/processor_test.go
package processor

import (
	"testing"

	"github.com/tizonia/omxcore/api"
)

type fakeKernel struct {
	claimed  []*api.BufferHeader
	released []*api.BufferHeader
}

func (f *fakeKernel) ClaimBuffer(pid, pos int) (*api.BufferHeader, api.ErrorType) {
	hdr := &api.BufferHeader{}
	f.claimed = append(f.claimed, hdr)
	return hdr, api.ErrorNone
}
func (f *fakeKernel) ReleaseBuffer(pid int, hdr *api.BufferHeader) api.ErrorType {
	f.released = append(f.released, hdr)
	return api.ErrorNone
}
func (f *fakeKernel) ClaimEGLImage(pid int, hdr *api.BufferHeader) (any, api.ErrorType) {
	return nil, api.ErrorNotImplemented
}

// echoProcessor claims one buffer per BuffersReady call and releases
// it immediately, exercising the claim/release contract through Base.
type echoProcessor struct {
	Base
}

func (p *echoProcessor) BuffersReady() api.ErrorType {
	hdr, errc := p.Kernel.ClaimBuffer(0, 0)
	if errc != api.ErrorNone {
		return errc
	}
	return p.Kernel.ReleaseBuffer(0, hdr)
}

func TestBaseDefaultsAreAllOk(t *testing.T) {
	var p Processor = &Base{}
	if errc := p.AllocateResources(0); errc != api.ErrorNone {
		t.Fatalf("unexpected: %v", errc)
	}
	if errc := p.BuffersReady(); errc != api.ErrorNone {
		t.Fatalf("unexpected: %v", errc)
	}
}

func TestEmbeddedProcessorUsesKernelAPI(t *testing.T) {
	fk := &fakeKernel{}
	p := &echoProcessor{Base: Base{Kernel: fk}}
	if errc := p.BuffersReady(); errc != api.ErrorNone {
		t.Fatalf("unexpected: %v", errc)
	}
	if len(fk.claimed) != 1 || len(fk.released) != 1 {
		t.Fatalf("expected one claim and one release, got claimed=%d released=%d", len(fk.claimed), len(fk.released))
	}
}
