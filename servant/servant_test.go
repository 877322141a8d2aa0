// File: servant/servant_test.go
package servant

import (
	"testing"

	"github.com/tizonia/omxcore/api"
)

func TestServantPriorityOrdering(t *testing.T) {
	var order []Kind
	s := New(func(m Message) { order = append(order, m.Kind) })

	s.Enqueue(Message{Kind: KindFillThisBuffer, FillBuffer: &BufferMsg{}})
	s.Enqueue(Message{Kind: KindCommand, Command: &CommandMsg{Type: api.CommandFlush}})
	s.Enqueue(Message{Kind: KindBuffersReady, BuffersReady: &BuffersReadyMsg{}})

	handled, err := s.Poll(10)
	if err != nil {
		t.Fatalf("Poll error: %v", err)
	}
	if handled != 3 {
		t.Fatalf("expected 3 handled, got %d", handled)
	}
	want := []Kind{KindCommand, KindBuffersReady, KindFillThisBuffer}
	for i, k := range want {
		if order[i] != k {
			t.Fatalf("position %d: want %v, got %v", i, k, order[i])
		}
	}
}

func TestServantPollNeverBlocksOnEmptyQueue(t *testing.T) {
	s := New(func(m Message) {})
	handled, err := s.Poll(10)
	if err != nil {
		t.Fatalf("Poll error: %v", err)
	}
	if handled != 0 {
		t.Fatalf("expected 0 handled on empty queue, got %d", handled)
	}
}

func TestServantPollBoundedByMaxEvents(t *testing.T) {
	s := New(func(m Message) {})
	for i := 0; i < 5; i++ {
		s.Enqueue(Message{Kind: KindFillThisBuffer, FillBuffer: &BufferMsg{}})
	}
	handled, _ := s.Poll(2)
	if handled != 2 {
		t.Fatalf("expected Poll to stop at maxEvents=2, got %d", handled)
	}
	if s.Pending() != 3 {
		t.Fatalf("expected 3 remaining, got %d", s.Pending())
	}
}

func TestServantStopRejectsEnqueue(t *testing.T) {
	s := New(func(m Message) {})
	s.Stop()
	if s.Enqueue(Message{Kind: KindBuffersReady, BuffersReady: &BuffersReadyMsg{}}) {
		t.Fatal("expected Enqueue to fail after Stop")
	}
}

func TestRingBufferMPMC(t *testing.T) {
	r := NewRingBuffer[int](8)
	for i := 0; i < 8; i++ {
		if !r.Enqueue(i) {
			t.Fatalf("enqueue %d should succeed", i)
		}
	}
	if r.Enqueue(99) {
		t.Fatal("expected ring to reject enqueue when full")
	}
	for i := 0; i < 8; i++ {
		v, ok := r.Dequeue()
		if !ok || v != i {
			t.Fatalf("expected %d, got %d (ok=%v)", i, v, ok)
		}
	}
	if _, ok := r.Dequeue(); ok {
		t.Fatal("expected empty ring to report ok=false")
	}
}
