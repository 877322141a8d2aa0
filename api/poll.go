// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Poller is the batched-drain contract a component's servant loop
// satisfies: tick() is Poll(), event sources are registered/unregistered
// watchers, and Push enqueues a message for the next Poll.

package api

// Event represents an event that can be processed by the poller.
type Event interface {
	// Data carries event payload.
	Data() any
}

// Poller represents a batched, cooperative event-drain loop. A
// servant.Servant satisfies this contract: Poll is tick(), bounded to
// maxEvents messages per call so a component's processing never blocks
// the host's scheduling loop (spec.md §5, "tick never blocks").
type Poller interface {
	// Poll handles up to maxEvents; returns number processed and error.
	Poll(maxEvents int) (handled int, err error)
	// Register adds a handler to this poller.
	Register(h Handler) error
	// Unregister removes a handler.
	Unregister(h Handler) error
	// Stop gracefully stops the poller, releasing resources.
	Stop()
	// Push adds an event to the poller for processing.
	Push(ev Event) bool
}
