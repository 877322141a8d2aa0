// File: component/component.go
// Author: momentics <momentics@gmail.com>
//
// Component ties kernel, processor, FSM and servant into one live OMX
// IL component instance (spec.md §1's tri-entity composition). Every
// host-facing call in hostapi.go either runs synchronously against the
// kernel (UseBuffer/AllocateBuffer/FreeBuffer, ComponentTunnelRequest,
// Get/SetParameter, Get/SetConfig, GetExtensionIndex and GetState) or
// is wrapped into a servant.Message and enqueued (SendCommand,
// EmptyThisBuffer, FillThisBuffer) for the goroutine draining this
// component's own Servant.

package component

import (
	"github.com/tizonia/omxcore/api"
	"github.com/tizonia/omxcore/appctx"
	"github.com/tizonia/omxcore/control"
	"github.com/tizonia/omxcore/fsm"
	"github.com/tizonia/omxcore/kernel"
	"github.com/tizonia/omxcore/pool"
	"github.com/tizonia/omxcore/port"
	"github.com/tizonia/omxcore/processor"
	"github.com/tizonia/omxcore/servant"
)

// ProcessorFactory builds the concrete Processor for a component once
// its KernelAPI exists, mirroring the way a real component wires
// processor.Base{Kernel: k} only after k is constructed.
type ProcessorFactory func(processor.KernelAPI) processor.Processor

// Config gathers everything New needs beyond the port list; built up
// by functional options the way the teacher's server package composes
// its listener configuration.
type Config struct {
	ConfigPort               *port.Port
	NewProcessor             ProcessorFactory
	Callbacks                api.Callbacks
	Scheduler                api.Scheduler
	SlavingApply             kernel.SlavingApply
	TunnelDispatch           kernel.TunnelDispatch
	ResourceManager          kernel.ResourceManager
	StrictConservationChecks bool

	// Tracer receives one span per FSM transition. Unset (the default)
	// gets a fresh control.NewTracer(64); WithTracer(nil) disables
	// tracing explicitly.
	Tracer    api.Tracer
	tracerSet bool
}

// Option mutates a Config at construction time.
type Option func(*Config)

// WithConfigPort attaches the component's config port (index -1 by
// OMX IL convention; index value itself is caller-assigned).
func WithConfigPort(p *port.Port) Option {
	return func(c *Config) { c.ConfigPort = p }
}

// WithProcessor installs the factory building this component's
// Processor; called with the live kernel.Kernel (as a
// processor.KernelAPI) so the processor can claim/release buffers
// from its very first hook invocation.
func WithProcessor(f ProcessorFactory) Option {
	return func(c *Config) { c.NewProcessor = f }
}

// WithCallbacks wires the host's EventHandler/EmptyBufferDone/
// FillBufferDone triple.
func WithCallbacks(cb api.Callbacks) Option {
	return func(c *Config) { c.Callbacks = cb }
}

// WithScheduler supplies the timer backend for this component's
// Watchers.
func WithScheduler(s api.Scheduler) Option {
	return func(c *Config) { c.Scheduler = s }
}

// WithSlaving installs the slaving-behaviour mirror function applied
// on SetParameter across paired master/slave ports.
func WithSlaving(apply kernel.SlavingApply) Option {
	return func(c *Config) { c.SlavingApply = apply }
}

// WithTunnelDispatch installs the callback that reaches a tunnel
// peer's ETB/FTB by (handle, port index), wired by the host runtime
// that knows how to resolve a handle to a live component.
func WithTunnelDispatch(d kernel.TunnelDispatch) Option {
	return func(c *Config) { c.TunnelDispatch = d }
}

// WithResourceManager installs the external RM proxy collaborator.
func WithResourceManager(rm kernel.ResourceManager) Option {
	return func(c *Config) { c.ResourceManager = rm }
}

// WithStrictConservationChecks enables the post-operation conservation
// assertion (spec.md §8's universal invariant), at the cost of a pass
// over every port on each ClaimBuffer call. Intended for tests and
// debug builds rather than production hot paths.
func WithStrictConservationChecks() Option {
	return func(c *Config) { c.StrictConservationChecks = true }
}

// WithTracer overrides the default control.Tracer with t (pass nil to
// disable transition tracing entirely).
func WithTracer(t api.Tracer) Option {
	return func(c *Config) { c.Tracer = t; c.tracerSet = true }
}

// Component is one live OMX IL component instance: the kernel's port
// registry and buffer-exchange state, a user-supplied Processor, the
// FSM's state-set protocol, and the servant loop that serializes every
// message against all three.
type Component struct {
	Handle api.Handle

	Kernel   *kernel.Kernel
	Proc     processor.Processor
	FSM      *fsm.FSM
	Servant  *servant.Servant
	Watchers *servant.Watchers
	Events   *servant.Events

	// Metrics/Debug/Context are the ambient introspection stack every
	// component carries regardless of the OMX surface it exposes:
	// dispatch counters, live probes, and a propagation-aware scratch
	// store for host-level annotations (spec.md §6 out-of-band of the
	// strict OMX API, not a substitute for GetParameter/GetConfig).
	Metrics *control.MetricsRegistry
	Debug   *control.DebugProbes
	Context api.Context

	// Tuning holds live-reloadable knobs, seeded by New with the initial
	// "strict_conservation" value. No reload listener is registered, so a
	// later change to that key does not reach Kernel.StrictConservationChecks.
	Tuning *control.ConfigStore

	// msgPool recycles the Message envelopes ETB/FTB/Callback traffic
	// allocates under load, the way the teacher's hioload-ws paths
	// recycle frame buffers instead of letting the GC churn on them.
	// Only the envelope is pooled: the payload structs it points to are
	// freshly allocated per call, since they outlive the Enqueue that
	// copies the envelope by value onto the queue.
	msgPool *pool.SyncPool[*servant.Message]

	// dispatchCounts tallies messages handled per servant.Kind, mirrored
	// into Metrics under "dispatch.<kind>" after each increment.
	dispatchCounts [9]int64
}

// New builds a Component over ports (the config port and every other
// collaborator come from opts). Processor wiring runs after the
// kernel exists, so NewProcessor receives a live processor.KernelAPI.
func New(ports []*port.Port, opts ...Option) *Component {
	var cfg Config
	for _, o := range opts {
		o(&cfg)
	}
	if !cfg.tracerSet {
		cfg.Tracer = control.NewTracer(64)
	}

	k := kernel.New(ports, cfg.ConfigPort)
	k.SlavingApply = cfg.SlavingApply
	k.Dispatch = cfg.TunnelDispatch
	k.RM = cfg.ResourceManager
	k.StrictConservationChecks = cfg.StrictConservationChecks
	k.Events = servant.NewEvents(cfg.Callbacks)

	c := &Component{
		Handle:  api.NewHandle(),
		Kernel:  k,
		Events:  k.Events,
		Metrics: control.NewMetricsRegistry(),
		Debug:   control.NewDebugProbes(),
		Context: appctx.NewContextStore(),
		Tuning:  control.NewConfigStore(),
		msgPool: pool.NewSyncPool(func() *servant.Message { return &servant.Message{} }),
	}
	c.Tuning.SetConfig(map[string]any{"strict_conservation": cfg.StrictConservationChecks})

	if cfg.NewProcessor != nil {
		c.Proc = cfg.NewProcessor(k)
		k.Proc = c.Proc
	}

	c.Servant = servant.New(c.dispatch)
	k.Enqueue = c.Servant.Enqueue
	c.FSM = k.NewFSM()
	c.FSM.SetTracer(cfg.Tracer)
	k.FSM = c.FSM
	c.Watchers = servant.NewWatchers(c.Servant, cfg.Scheduler)

	c.Debug.RegisterProbe("fsm.state", func() any { return c.FSM.Current().String() })
	c.Debug.RegisterProbe("fsm.substate", func() any { return c.FSM.SubStateInProgress().String() })
	c.Debug.RegisterProbe("servant.pending", func() any { return c.Servant.Pending() })
	c.Debug.RegisterProbe("metrics", func() any { return c.Metrics.GetSnapshot() })
	c.Debug.RegisterProbe("context.keys", func() any { return c.Context.Keys() })
	if tracer, ok := cfg.Tracer.(*control.Tracer); ok {
		c.Debug.RegisterProbe("tracer.spans", func() any { return tracer.Snapshot() })
	}

	return c
}

// Tick drains up to maxEvents queued messages, the way a host runtime
// steps every live component once per scheduling pass (spec.md §5).
func (c *Component) Tick(maxEvents int) (int, error) {
	return c.Servant.Poll(maxEvents)
}

// newMessage borrows a zeroed Message envelope from msgPool; the ETB/
// FTB/SendCommand hot paths use this instead of a literal allocation.
func (c *Component) newMessage() *servant.Message {
	m := c.msgPool.Get()
	*m = servant.Message{}
	return m
}

// releaseMessage returns m to msgPool once its value has been copied
// onto the servant's queue (Enqueue copies by value, so the envelope
// itself is free the instant it returns).
func (c *Component) releaseMessage(m *servant.Message) {
	c.msgPool.Put(m)
}
