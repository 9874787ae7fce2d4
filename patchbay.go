package patchbay

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/patchbay/internal/presentation/graph"
	"github.com/aretw0/patchbay/internal/router"
	"github.com/aretw0/patchbay/pkg/engine"
	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// Version is the library version.
const Version = "0.1.0"

// Patch is the high-level entry point for the Patchbay library.
// It wraps the internal routing manager and provides a simplified API for
// consumers: register modules, connect ports, route audio to the engine's
// output channels, and reconcile.
//
// Like the routing core, a Patch expects a single driving thread. The only
// concurrent access is the audio engine pulling through bound handles.
type Patch struct {
	logger  *slog.Logger
	engine  engine.AudioEngine
	manager *router.Manager
	open    bool
}

// Option defines a functional option for configuring the Patch.
type Option func(*Patch)

// WithEngine attaches the audio engine that renders routed output channels.
// Without one, RouteToOutput fails but everything else works, which is the
// normal shape for analysis and tests.
func WithEngine(eng engine.AudioEngine) Option {
	return func(p *Patch) {
		p.engine = eng
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Patch) {
		p.logger = logger
	}
}

// New initializes an empty Patch.
func New(opts ...Option) *Patch {
	p := &Patch{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	p.manager = router.New(p.engine, p.logger)
	return p
}

// Open acquires the audio engine. Idempotent.
func (p *Patch) Open() error {
	if p.open {
		return nil
	}
	if p.engine != nil {
		if err := p.engine.Begin(); err != nil {
			return fmt.Errorf("open: %w", err)
		}
	}
	p.open = true
	p.logger.Info("patch opened")
	return nil
}

// Close stops every started module in reverse registration order, then
// releases the audio engine. Idempotent; all errors are reported together.
func (p *Patch) Close() error {
	var errs []error
	mods := p.manager.Modules()
	for i := len(mods) - 1; i >= 0; i-- {
		if mods[i].State() == module.StateStarted {
			if err := mods[i].Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop %s: %w", mods[i].Name(), err))
			}
		}
	}
	if p.engine != nil {
		if err := p.engine.End(); err != nil {
			errs = append(errs, fmt.Errorf("end engine: %w", err))
		}
	}
	p.open = false
	p.logger.Info("patch closed")
	return errors.Join(errs...)
}

// Register adds modules to the patch under their unique names.
func (p *Patch) Register(mods ...module.Module) error {
	for _, mod := range mods {
		if err := p.manager.Register(mod); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes a module and every connection and output route touching
// it. Unknown names are a logged no-op.
func (p *Patch) Unregister(name string) error {
	return p.manager.Unregister(name)
}

// Module returns one registered module by name.
func (p *Patch) Module(name string) (module.Module, error) {
	return p.manager.Module(name)
}

// Modules returns the registered modules in registration order.
func (p *Patch) Modules() []module.Module {
	return p.manager.Modules()
}

// Connect patches a source output port into a destination input port with an
// explicit signal type. A prior connection at the destination is replaced.
func (p *Patch) Connect(srcMod, srcPort, dstMod, dstPort string, t signal.Type) error {
	return p.manager.Connect(srcMod, srcPort, dstMod, dstPort, t)
}

// Disconnect removes the connection feeding a destination port, if any.
func (p *Patch) Disconnect(dstMod, dstPort string) error {
	return p.manager.Disconnect(dstMod, dstPort)
}

// ResolveInput follows the connection at an input port to the source port's
// current handle, or the type default when unconnected.
func (p *Patch) ResolveInput(mod, port string) (*signal.Ref, error) {
	return p.manager.ResolveInput(mod, port)
}

// RouteToOutput persistently binds an audio output port to a physical engine
// channel.
func (p *Patch) RouteToOutput(mod, port string, channel int) error {
	return p.manager.RouteToOutput(mod, port, channel)
}

// Reconcile re-resolves all bindings and re-pushes output-channel routes into
// the engine. Idempotent.
func (p *Patch) Reconcile() error {
	return p.manager.Reconcile()
}

// Reconciles reports how many reconciliation passes have run.
func (p *Patch) Reconciles() int64 {
	return p.manager.Reconciles()
}

// Connections returns the connection set sorted by destination.
func (p *Patch) Connections() []signal.Connection {
	return p.manager.Connections()
}

// Sinks returns the output-channel routes.
func (p *Patch) Sinks() map[int]signal.PortRef {
	return p.manager.Sinks()
}

// StartAll starts every registered module in registration order, stopping at
// the first failure.
func (p *Patch) StartAll() error {
	for _, mod := range p.manager.Modules() {
		if err := mod.Start(); err != nil {
			return fmt.Errorf("start %s: %w", mod.Name(), err)
		}
	}
	return nil
}

// RecomputeAll recomputes every started module in registration order. Sources
// register before the modules consuming them in a typical patch, so one pass
// settles the control values downstream.
func (p *Patch) RecomputeAll() error {
	for _, mod := range p.manager.Modules() {
		if mod.State() != module.StateStarted {
			continue
		}
		if err := mod.Recompute(); err != nil {
			return fmt.Errorf("recompute %s: %w", mod.Name(), err)
		}
	}
	return nil
}

// Graph renders the patch as a Mermaid flowchart.
func (p *Patch) Graph() string {
	return graph.GenerateMermaid(p.manager.Modules(), p.manager.Connections(), p.manager.Sinks())
}
