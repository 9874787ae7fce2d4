// Package router implements the ConnectionManager: the registry of modules and
// connections, the sole authority for validating edges and resolving what
// handle is currently bound to an input port. It computes nothing itself.
package router

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/patchbay/pkg/engine"
	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// Manager owns the module registry and the connection set, keyed by
// destination port, plus the persistent output-channel sink registrations.
//
// Not safe for concurrent mutation from multiple threads without external
// synchronization: the design assumes a single driving thread. The only
// concurrent access is the render engine reading through bound Refs.
type Manager struct {
	logger *slog.Logger
	engine engine.AudioEngine

	modules map[string]module.Module
	order   []string // registration order, for deterministic introspection

	// edges is the directed graph keyed by destination: at most one incoming
	// connection per input port, unlimited fan-out per output port.
	edges map[signal.PortRef]signal.Connection

	// sinks maps physical output channels to the audio output port feeding
	// them. Persistent: reconciliation re-pushes the current handle.
	sinks map[int]signal.PortRef

	// bindings is the last reconciled snapshot of destination -> handle,
	// kept for introspection and the reconcile idempotency property. Live
	// resolution never reads it.
	bindings map[signal.PortRef]*signal.Ref

	reconciles int64
}

// New creates an empty manager driving the given engine.
func New(eng engine.AudioEngine, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		logger:   logger,
		engine:   eng,
		modules:  make(map[string]module.Module),
		edges:    make(map[signal.PortRef]signal.Connection),
		sinks:    make(map[int]signal.PortRef),
		bindings: make(map[signal.PortRef]*signal.Ref),
	}
}

// Register inserts a module under its name and injects the resolver.
func (m *Manager) Register(mod module.Module) error {
	name := mod.Name()
	if name == "" {
		return fmt.Errorf("register: module name must not be empty")
	}
	if _, ok := m.modules[name]; ok {
		return &signal.DuplicateNameError{Name: name}
	}
	m.modules[name] = mod
	m.order = append(m.order, name)
	mod.Bind(m)
	m.logger.Debug("module registered", "module", name)
	return nil
}

// Unregister removes the module and every connection and sink touching it.
// An absent name is reported, not raised: idempotent removal is a supported
// patch-editing pattern.
func (m *Manager) Unregister(name string) error {
	if _, ok := m.modules[name]; !ok {
		m.logger.Warn("unregister of unknown module", "module", name)
		return nil
	}
	delete(m.modules, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	for dst, conn := range m.edges {
		if conn.Source.Module == name || conn.Destination.Module == name {
			delete(m.edges, dst)
			delete(m.bindings, dst)
		}
	}
	for ch, src := range m.sinks {
		if src.Module == name {
			delete(m.sinks, ch)
			if m.engine != nil {
				m.engine.UnbindChannel(ch)
			}
		}
	}
	m.logger.Debug("module unregistered", "module", name)
	return nil
}

// Connect validates and stores a directed edge. On any validation failure the
// graph is unchanged; on success any prior edge at the destination port is
// silently replaced.
func (m *Manager) Connect(srcMod, srcPort, dstMod, dstPort string, t signal.Type) error {
	src, err := m.lookupPort(srcMod, srcPort, signal.Out)
	if err != nil {
		return err
	}
	dst, err := m.lookupPort(dstMod, dstPort, signal.In)
	if err != nil {
		return err
	}
	if !t.Valid() || src.Type != t || dst.Type != t {
		return &signal.TypeMismatchError{
			Source:      signal.PortRef{Module: srcMod, Port: srcPort},
			SourceType:  src.Type,
			Destination: signal.PortRef{Module: dstMod, Port: dstPort},
			DestType:    dst.Type,
			Declared:    t,
		}
	}

	conn := signal.Connection{
		Source:      signal.PortRef{Module: srcMod, Port: srcPort},
		Destination: signal.PortRef{Module: dstMod, Port: dstPort},
		Type:        t,
	}
	if prior, ok := m.edges[conn.Destination]; ok {
		m.logger.Debug("connection replaced", "prior", prior.String(), "new", conn.String())
	}
	m.edges[conn.Destination] = conn
	m.bindings[conn.Destination] = m.currentSourceRef(conn)
	m.logger.Info("connected", "connection", conn.String())
	return nil
}

// Disconnect removes the edge at a destination port. Absent edges are a
// no-op, not an error.
func (m *Manager) Disconnect(dstMod, dstPort string) error {
	dst := signal.PortRef{Module: dstMod, Port: dstPort}
	conn, ok := m.edges[dst]
	if !ok {
		m.logger.Debug("disconnect of unconnected port", "destination", dst.String())
		return nil
	}
	delete(m.edges, dst)
	delete(m.bindings, dst)
	m.logger.Info("disconnected", "connection", conn.String())
	return nil
}

// ResolveInput follows the edge at a destination port to the source port's
// current handle. Resolution is live, at call time: it can never observe a
// stale handle. Unconnected ports resolve to the type's default handle.
func (m *Manager) ResolveInput(dstMod, dstPort string) (*signal.Ref, error) {
	dst, err := m.lookupPort(dstMod, dstPort, signal.In)
	if err != nil {
		return nil, err
	}
	conn, ok := m.edges[signal.PortRef{Module: dstMod, Port: dstPort}]
	if !ok {
		return signal.DefaultRef(dst.Type), nil
	}
	if ref := m.currentSourceRef(conn); ref != nil {
		return ref, nil
	}
	return signal.DefaultRef(dst.Type), nil
}

// Reconcile re-resolves every edge's destination binding against the current
// handle of its source port and re-pushes every sink binding into the engine.
// With live resolution and stable handles this is a safety net; it is
// idempotent, so repeated calls with no intervening change produce identical
// bindings.
func (m *Manager) Reconcile() error {
	for dst, conn := range m.edges {
		m.bindings[dst] = m.currentSourceRef(conn)
	}
	for ch, src := range m.sinks {
		ref := m.outputRef(src)
		if ref == nil {
			continue
		}
		if m.engine != nil {
			if err := m.engine.BindChannel(ch, ref); err != nil {
				return fmt.Errorf("reconcile channel %d: %w", ch, err)
			}
		}
	}
	m.reconciles++
	m.logger.Debug("reconciled", "edges", len(m.edges), "sinks", len(m.sinks))
	return nil
}

// RouteToOutput registers a persistent sink: the named audio output drives a
// physical engine channel from now on, following any repoint of the handle.
func (m *Manager) RouteToOutput(mod, port string, channel int) error {
	p, err := m.lookupPort(mod, port, signal.Out)
	if err != nil {
		return err
	}
	if p.Type != signal.TypeAudio {
		return fmt.Errorf("route %s.%s: only audio outputs can drive an output channel, port is %s", mod, port, p.Type)
	}
	if m.engine == nil {
		return fmt.Errorf("route %s.%s: no audio engine attached", mod, port)
	}
	src := signal.PortRef{Module: mod, Port: port}
	ref := m.outputRef(src)
	if err := m.engine.BindChannel(channel, ref); err != nil {
		return fmt.Errorf("route %s to channel %d: %w", src, channel, err)
	}
	m.sinks[channel] = src
	m.logger.Info("routed to output", "source", src.String(), "channel", channel)
	return nil
}

// Modules returns the registered modules in registration order.
func (m *Manager) Modules() []module.Module {
	out := make([]module.Module, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.modules[name])
	}
	return out
}

// Module returns one registered module by name.
func (m *Manager) Module(name string) (module.Module, error) {
	mod, ok := m.modules[name]
	if !ok {
		return nil, &signal.ModuleNotFoundError{Name: name}
	}
	return mod, nil
}

// Connections returns the edge set sorted by destination, for deterministic
// introspection.
func (m *Manager) Connections() []signal.Connection {
	out := make([]signal.Connection, 0, len(m.edges))
	for _, c := range m.edges {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Destination.String() < out[j].Destination.String()
	})
	return out
}

// Sinks returns the channel -> source port registrations.
func (m *Manager) Sinks() map[int]signal.PortRef {
	out := make(map[int]signal.PortRef, len(m.sinks))
	for ch, src := range m.sinks {
		out[ch] = src
	}
	return out
}

// Bindings returns the last reconciled destination -> handle snapshot.
func (m *Manager) Bindings() map[signal.PortRef]*signal.Ref {
	out := make(map[signal.PortRef]*signal.Ref, len(m.bindings))
	for k, v := range m.bindings {
		out[k] = v
	}
	return out
}

// Reconciles reports how many reconciliation passes have run.
func (m *Manager) Reconciles() int64 { return m.reconciles }

// lookupPort validates module existence, port existence and direction.
func (m *Manager) lookupPort(mod, port string, want signal.Direction) (signal.Port, error) {
	mm, ok := m.modules[mod]
	if !ok {
		return signal.Port{}, &signal.ModuleNotFoundError{Name: mod}
	}
	ports := mm.Outputs()
	opposite := mm.Inputs()
	if want == signal.In {
		ports, opposite = opposite, ports
	}
	for _, p := range ports {
		if p.Name == port {
			return p, nil
		}
	}
	for _, p := range opposite {
		if p.Name == port {
			return signal.Port{}, &signal.PortDirectionError{Module: mod, Port: port, Want: want, Got: p.Direction}
		}
	}
	return signal.Port{}, &signal.PortNotFoundError{Module: mod, Port: port, Direction: want}
}

// currentSourceRef follows an edge to the source port's current handle.
func (m *Manager) currentSourceRef(conn signal.Connection) *signal.Ref {
	return m.outputRef(conn.Source)
}

func (m *Manager) outputRef(src signal.PortRef) *signal.Ref {
	mod, ok := m.modules[src.Module]
	if !ok {
		return nil
	}
	ref, err := mod.OutputRef(src.Port)
	if err != nil {
		return nil
	}
	return ref
}
