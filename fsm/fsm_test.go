// File: fsm/fsm_test.go
package fsm

import (
	"testing"

	"github.com/tizonia/omxcore/api"
)

func TestLoadedToIdleRequiresMicroStep(t *testing.T) {
	called := false
	var events []State
	steps := Steps{"loaded_to_idle": func() error { called = true; return nil }}
	f := New(steps, func(c api.CommandType, p uint32) { events = append(events, State(p)) })

	if got := f.RequestTransition(StateIdle); got != api.ErrorNone {
		t.Fatalf("unexpected error: %v", got)
	}
	if !called {
		t.Fatal("expected loaded_to_idle micro-step to be invoked")
	}
	if f.SubStateInProgress() != SubStateLoadedToIdle {
		t.Fatalf("expected LoadedToIdle substate, got %v", f.SubStateInProgress())
	}
	if f.Current() != StateLoaded {
		t.Fatalf("state should not settle until CompleteTransition, got %v", f.Current())
	}

	if err := f.CompleteTransition(); err != nil {
		t.Fatalf("CompleteTransition: %v", err)
	}
	if f.Current() != StateIdle {
		t.Fatalf("expected Idle after completion, got %v", f.Current())
	}
	if len(events) != 1 || events[0] != StateIdle {
		t.Fatalf("expected exactly one CmdComplete(StateSet, Idle), got %v", events)
	}
}

func TestInvalidTransitionRejected(t *testing.T) {
	f := New(Steps{}, nil)
	if got := f.RequestTransition(StateExecuting); got != api.ErrorIncorrectStateTransition {
		t.Fatalf("expected IncorrectStateTransition, got %v", got)
	}
}

func TestWaitForResourcesToLoadedCompletesImmediately(t *testing.T) {
	f := New(Steps{}, nil)
	f.current = StateWaitForResources
	if got := f.RequestTransition(StateLoaded); got != api.ErrorNone {
		t.Fatalf("unexpected error: %v", got)
	}
	if f.Current() != StateLoaded {
		t.Fatalf("expected immediate Loaded, got %v", f.Current())
	}
}

func TestPendingTransitionRejectsAnotherRequest(t *testing.T) {
	steps := Steps{"loaded_to_idle": func() error { return nil }}
	f := New(steps, nil)
	f.RequestTransition(StateIdle)
	if got := f.RequestTransition(StateExecuting); got != api.ErrorIncorrectStateOperation {
		t.Fatalf("expected IncorrectStateOperation while substate pending, got %v", got)
	}
}

func TestMicroStepFailureAbortsTransition(t *testing.T) {
	steps := Steps{"loaded_to_idle": func() error { return errInsufficientResources }}
	f := New(steps, nil)
	if got := f.RequestTransition(StateIdle); got != api.ErrorInsufficientResources {
		t.Fatalf("expected InsufficientResources, got %v", got)
	}
	if f.SubStateInProgress() != SubStateNone {
		t.Fatal("expected substate cleared after failed micro-step")
	}
}

var errInsufficientResources = fsmTestErr("insufficient resources")

type fsmTestErr string

func (e fsmTestErr) Error() string { return string(e) }
