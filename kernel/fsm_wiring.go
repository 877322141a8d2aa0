// File: kernel/fsm_wiring.go
// Author: momentics <momentics@gmail.com>
//
// NewFSM wires this kernel's resource-lifecycle methods into an
// fsm.FSM's micro-step table, keyed by the exact step names fsm's 6x6
// dispatch table names (spec.md §4.5).

package kernel

import (
	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/fsm"
)

// Steps returns the micro-step callbacks fsm.New requires, each one
// delegating to this kernel's own resource-lifecycle methods for
// every port (api.PortIndexAll).
func (k *Kernel) Steps() fsm.Steps {
	errOf := func(e api.ErrorType) error {
		if e != api.ErrorNone {
			return errorTypeErr{e}
		}
		return nil
	}
	return fsm.Steps{
		"loaded_to_idle":    func() error { return errOf(k.AllocateResources(api.PortIndexAll)) },
		"idle_to_loaded":    func() error { return errOf(k.DeallocateResources()) },
		"idle_to_executing": func() error { return errOf(k.transitionToExecuting()) },
		"executing_to_idle": func() error { return errOf(k.StopAndReturn()) },
		"executing_to_pause": func() error {
			if k.Proc != nil {
				if errc := k.Proc.Pause(); errc != api.ErrorNone {
					return errOf(errc)
				}
			}
			k.CheckTransitionCompletion()
			return nil
		},
		"pause_to_idle": func() error { return errOf(k.StopAndReturn()) },
		"pause_to_executing": func() error {
			if k.Proc != nil {
				if errc := k.Proc.Resume(); errc != api.ErrorNone {
					return errOf(errc)
				}
			}
			k.CheckTransitionCompletion()
			return nil
		},
		"idle_to_pause": func() error { k.CheckTransitionCompletion(); return nil },
	}
}

func (k *Kernel) transitionToExecuting() api.ErrorType {
	defer k.CheckTransitionCompletion()
	if errc := k.PrepareToTransfer(api.PortIndexAll); errc != api.ErrorNone {
		return errc
	}
	return k.TransferAndProcess(api.PortIndexAll)
}

// NewFSM builds an fsm.FSM wired to this kernel's Steps and to
// Events.IssueCmdEvent for completion notification.
func (k *Kernel) NewFSM() *fsm.FSM {
	return fsm.New(k.Steps(), func(cmd api.CommandType, param uint32) {
		if k.Events != nil {
			k.Events.IssueCmdEvent(cmd, param)
		}
	})
}

// errorTypeErr adapts an api.ErrorType to the error interface so it
// can flow through fsm.Steps, which spec.md §4.5 models as plain
// Go errors ("step() error").
type errorTypeErr struct{ code api.ErrorType }

func (e errorTypeErr) Error() string { return e.code.String() }
