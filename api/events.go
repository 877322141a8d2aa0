// File: api/events.go
// Package api defines core event types for the component runtime.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// PluggableEvent is a host-injected callback scheduled on a component's
// servant task (spec.md §4.1, §6 "Pluggable events"). A host may submit
// arbitrary work to run serialized with the component's other messages.
type PluggableEvent struct {
	Fn      func(target Handle)
	Payload any
}

// Data implements the generic Event contract (api.Event) for pluggable events.
func (p PluggableEvent) Data() any { return p.Payload }
