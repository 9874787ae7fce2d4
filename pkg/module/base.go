package module

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/patchbay/pkg/signal"
)

// ParamSpec declares one parameter: its default and an optional normalizing
// validator. The validator receives the already type-coerced value and returns
// the value to store, or an error describing why it is out of range.
type ParamSpec struct {
	Default  any
	Validate func(v any) (any, error)
}

// Base carries the state every variant shares: identity, lifecycle, ports,
// output handle ownership, parameters and the resolver injected at
// registration. Variants embed it and implement Recompute on top.
//
// Base is not safe for concurrent use; see the Module contract.
type Base struct {
	name     string
	state    State
	resolver Resolver
	clock    Clock

	inputs  []signal.Port
	outputs []signal.Port
	refs    map[string]*signal.Ref

	params map[string]any
	specs  map[string]ParamSpec

	// Lifecycle hooks, set by the embedding variant before first Start.
	OnStart func() error
	OnStop  func() error
}

// NewBase constructs the shared state for a named module.
func NewBase(name string) Base {
	return Base{
		name:   name,
		state:  StateCreated,
		clock:  SystemClock{},
		refs:   make(map[string]*signal.Ref),
		params: make(map[string]any),
		specs:  make(map[string]ParamSpec),
	}
}

// Name implements Module.
func (b *Base) Name() string { return b.name }

// State implements Module.
func (b *Base) State() State { return b.state }

// Bind implements Module. The registry calls it at registration.
func (b *Base) Bind(r Resolver) { b.resolver = r }

// SetClock swaps the time source. Tests use a manual clock.
func (b *Base) SetClock(c Clock) {
	if c != nil {
		b.clock = c
	}
}

// Clock returns the module's time source.
func (b *Base) Clock() Clock { return b.clock }

// DefineInput declares an input port. Port names are unique per direction;
// redefinition is a programming error in the variant.
func (b *Base) DefineInput(name string, t signal.Type) {
	for _, p := range b.inputs {
		if p.Name == name {
			panic(fmt.Sprintf("module %q: input port %q redefined", b.name, name))
		}
	}
	b.inputs = append(b.inputs, signal.Port{Module: b.name, Name: name, Direction: signal.In, Type: t})
}

// DefineOutput declares an output port and allocates its stable handle. The
// handle carries the type default until the first recomputation, which is what
// makes "upstream not started yet" resolve to a defined default downstream.
func (b *Base) DefineOutput(name string, t signal.Type) *signal.Ref {
	if _, ok := b.refs[name]; ok {
		panic(fmt.Sprintf("module %q: output port %q redefined", b.name, name))
	}
	ref := signal.NewRef(t)
	b.refs[name] = ref
	b.outputs = append(b.outputs, signal.Port{Module: b.name, Name: name, Direction: signal.Out, Type: t})
	return ref
}

// Inputs implements Module.
func (b *Base) Inputs() []signal.Port {
	out := make([]signal.Port, len(b.inputs))
	copy(out, b.inputs)
	return out
}

// Outputs implements Module.
func (b *Base) Outputs() []signal.Port {
	out := make([]signal.Port, len(b.outputs))
	copy(out, b.outputs)
	return out
}

// OutputRef implements Module.
func (b *Base) OutputRef(port string) (*signal.Ref, error) {
	ref, ok := b.refs[port]
	if !ok {
		return nil, &signal.PortNotFoundError{Module: b.name, Port: port, Direction: signal.Out}
	}
	return ref, nil
}

// Start implements Module. Created/Stopped -> Started; already Started is a
// no-op.
func (b *Base) Start() error {
	if b.state == StateStarted {
		return nil
	}
	if b.OnStart != nil {
		if err := b.OnStart(); err != nil {
			return fmt.Errorf("start %s: %w", b.name, err)
		}
	}
	b.state = StateStarted
	return nil
}

// Stop implements Module. Idempotent; Created -> Stopped is allowed so that
// tearing down a half-built patch never fails.
func (b *Base) Stop() error {
	if b.state == StateStopped {
		return nil
	}
	if b.OnStop != nil {
		if err := b.OnStop(); err != nil {
			return fmt.Errorf("stop %s: %w", b.name, err)
		}
	}
	b.state = StateStopped
	return nil
}

// EnsureStarted guards operations that require a running module.
func (b *Base) EnsureStarted(op string) error {
	if b.state != StateStarted {
		return &StateError{Module: b.name, Op: op, State: b.state}
	}
	return nil
}

// DefineParam declares a parameter with its default and validator.
func (b *Base) DefineParam(name string, spec ParamSpec) {
	b.specs[name] = spec
	b.params[name] = spec.Default
}

// SetParameter implements Module. Values are weakly coerced toward the
// default's type (an int for a float parameter is fine), then validated.
func (b *Base) SetParameter(name string, value any) error {
	spec, ok := b.specs[name]
	if !ok {
		return &InvalidParameterError{Module: b.name, Name: name}
	}

	coerced, err := coerce(value, spec.Default)
	if err != nil {
		return &InvalidParameterError{Module: b.name, Name: name, Value: value, Reason: err.Error()}
	}

	if spec.Validate != nil {
		coerced, err = spec.Validate(coerced)
		if err != nil {
			return &InvalidParameterError{Module: b.name, Name: name, Value: value, Reason: err.Error()}
		}
	}

	b.params[name] = coerced
	return nil
}

// Configure applies a whole parameter map, failing on the first bad entry.
func (b *Base) Configure(params map[string]any) error {
	for name, v := range params {
		if err := b.SetParameter(name, v); err != nil {
			return err
		}
	}
	return nil
}

// FloatParam returns a float parameter's current value.
func (b *Base) FloatParam(name string) float64 {
	v, _ := b.params[name].(float64)
	return v
}

// IntParam returns an int parameter's current value.
func (b *Base) IntParam(name string) int {
	v, _ := b.params[name].(int)
	return v
}

// StringParam returns a string parameter's current value.
func (b *Base) StringParam(name string) string {
	v, _ := b.params[name].(string)
	return v
}

// Parameters returns a copy of the current parameter map, for introspection.
func (b *Base) Parameters() map[string]any {
	out := make(map[string]any, len(b.params))
	for k, v := range b.params {
		out[k] = v
	}
	return out
}

// Resolve follows the routing layer to the handle currently bound to one of
// this module's input ports. Unregistered modules and unconnected ports
// resolve to the type's default handle: live conditions are fail-soft.
func (b *Base) Resolve(port string) *signal.Ref {
	var t signal.Type
	found := false
	for _, p := range b.inputs {
		if p.Name == port {
			t, found = p.Type, true
			break
		}
	}
	if !found {
		panic(fmt.Sprintf("module %q: resolve of undeclared input %q", b.name, port))
	}
	if b.resolver == nil {
		return signal.DefaultRef(t)
	}
	ref, err := b.resolver.ResolveInput(b.name, port)
	if err != nil || ref == nil {
		return signal.DefaultRef(t)
	}
	return ref
}

// coerce normalizes value toward the same dynamic type as the parameter
// default, using weak decoding so callers may pass ints for floats, numeric
// strings from a config surface, and so on.
func coerce(value, def any) (any, error) {
	switch def.(type) {
	case float64:
		var f float64
		if err := mapstructure.WeakDecode(value, &f); err != nil {
			return nil, fmt.Errorf("not a number")
		}
		return f, nil
	case int:
		var i int
		if err := mapstructure.WeakDecode(value, &i); err != nil {
			return nil, fmt.Errorf("not an integer")
		}
		return i, nil
	case string:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("not a string")
		}
		return s, nil
	case bool:
		var bv bool
		if err := mapstructure.WeakDecode(value, &bv); err != nil {
			return nil, fmt.Errorf("not a boolean")
		}
		return bv, nil
	default:
		return value, nil
	}
}

// ClampFloat builds a validator keeping a float parameter inside [lo, hi].
func ClampFloat(lo, hi float64) func(any) (any, error) {
	return func(v any) (any, error) {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("not a number")
		}
		if f < lo {
			f = lo
		}
		if f > hi {
			f = hi
		}
		return f, nil
	}
}

// RangeFloat builds a validator rejecting values outside [lo, hi].
func RangeFloat(lo, hi float64) func(any) (any, error) {
	return func(v any) (any, error) {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("not a number")
		}
		if f < lo || f > hi {
			return nil, fmt.Errorf("out of range [%g, %g]", lo, hi)
		}
		return f, nil
	}
}

// OneOf builds a validator restricting a string parameter to a fixed set.
func OneOf(allowed ...string) func(any) (any, error) {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("not a string")
		}
		for _, a := range allowed {
			if s == a {
				return s, nil
			}
		}
		return nil, fmt.Errorf("must be one of %v", allowed)
	}
}
