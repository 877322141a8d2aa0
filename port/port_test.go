// File: port/port_test.go
package port

import (
	"testing"

	"github.com/tizonia/omxcore/api"
)

func TestUseBufferPopulatesPort(t *testing.T) {
	p := New(0, api.DirInput, api.DomainAudio, nil)
	p.BufferCount = 2

	if p.Flags.Populated {
		t.Fatal("expected unpopulated before any UseBuffer")
	}
	if _, errc := p.UseBuffer(make([]byte, 64), nil); errc != api.ErrorNone {
		t.Fatalf("unexpected error: %v", errc)
	}
	if p.Flags.Populated {
		t.Fatal("expected still unpopulated after 1/2 buffers")
	}
	if _, errc := p.UseBuffer(make([]byte, 64), nil); errc != api.ErrorNone {
		t.Fatalf("unexpected error: %v", errc)
	}
	if !p.Flags.Populated {
		t.Fatal("expected populated after 2/2 buffers")
	}
}

func TestTunneledNonSupplierRejectsUseBuffer(t *testing.T) {
	p := New(0, api.DirInput, api.DomainAudio, nil)
	p.Flags.Tunneled = true
	p.Flags.Supplier = false

	if _, errc := p.UseBuffer(make([]byte, 16), nil); errc != api.ErrorTunnelingUnsupported {
		t.Fatalf("expected TunnelingUnsupported, got %v", errc)
	}
}

func TestFreeBufferDepopulates(t *testing.T) {
	p := New(0, api.DirInput, api.DomainAudio, nil)
	p.BufferCount = 1
	hdr, _ := p.UseBuffer(make([]byte, 16), nil)
	if !p.Flags.Populated {
		t.Fatal("expected populated")
	}
	if errc := p.FreeBuffer(hdr); errc != api.ErrorNone {
		t.Fatalf("unexpected error: %v", errc)
	}
	if p.Flags.Populated {
		t.Fatal("expected depopulated after FreeBuffer")
	}
	if p.HeaderCount() != 0 {
		t.Fatalf("expected 0 headers, got %d", p.HeaderCount())
	}
}

func TestMarkBufferRoundTrip(t *testing.T) {
	p := New(0, api.DirInput, api.DomainAudio, nil)
	if _, ok := p.MarkBuffer(&api.BufferHeader{}); ok {
		t.Fatal("expected no mark pending")
	}
	target := api.NewHandle()
	p.PushMark(Mark{TargetComponent: target, Data: "tag"})
	hdr := &api.BufferHeader{}
	m, ok := p.MarkBuffer(hdr)
	if !ok {
		t.Fatal("expected mark to attach")
	}
	if m.Data != "tag" || hdr.MarkData != "tag" || hdr.MarkTargetComponent != target {
		t.Fatalf("mark not attached correctly: %+v", hdr)
	}
}

func TestApplySlavingBehaviourEmitsChangedIndex(t *testing.T) {
	master := New(0, api.DirInput, api.DomainAudio, nil)
	slave := New(1, api.DirInput, api.DomainAudio, nil)
	master.SlaveIndex = 1
	slave.MasterIndex = 0

	idx, changed := master.ApplySlavingBehaviour(slave, func(src, dst *Port) (api.IndexType, bool) {
		return api.IndexParamAudioInit, true
	})
	if !changed || idx != api.IndexParamAudioInit {
		t.Fatalf("expected slaving to report changed index, got idx=%v changed=%v", idx, changed)
	}
}

func TestZeroBufferCountPortIsTriviallyPopulated(t *testing.T) {
	p := New(0, api.DirOutput, api.DomainOther, nil)
	if errc := p.Populate(); errc != api.ErrorNone {
		t.Fatalf("unexpected error: %v", errc)
	}
	if !p.Flags.Populated {
		t.Fatal("expected a zero-buffer-count port to be trivially populated")
	}
}
