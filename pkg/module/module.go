package module

import (
	"time"

	"github.com/aretw0/patchbay/pkg/signal"
)

// State is the lifecycle position of a module.
type State string

const (
	// StateCreated means the module exists but holds no resources yet.
	StateCreated State = "created"
	// StateStarted means Start has run and the module may be recomputed.
	StateStarted State = "started"
	// StateStopped means Stop has released resources; Start may run again.
	StateStopped State = "stopped"
)

// Resolver answers "what handle is currently bound to this input port". It is
// the single dependency a module has on the routing layer; the registry injects
// itself via Bind at registration time.
type Resolver interface {
	// ResolveInput follows the edge at the named destination port to the
	// source port's current handle, or returns the type's default handle when
	// the port is unconnected. It fails only for unknown module/port names.
	ResolveInput(mod, port string) (*signal.Ref, error)
}

// Module is the shared contract across all variants.
//
// Not safe for concurrent use: all calls must come from the single driving
// thread. Only the contents of the output Refs may be read concurrently, by
// the render engine.
type Module interface {
	// Name is unique across the patch.
	Name() string

	// Inputs and Outputs list the module's ports.
	Inputs() []signal.Port
	Outputs() []signal.Port

	// OutputRef returns the stable handle owned by the named output port.
	// The handle exists from construction, carrying the type default until
	// the first recomputation.
	OutputRef(port string) (*signal.Ref, error)

	// State reports the lifecycle position.
	State() State

	// Start acquires underlying resources. Idempotent.
	Start() error
	// Stop releases them. Idempotent.
	Stop() error

	// SetParameter is a pure local mutation taking effect at the next
	// Recompute. Returns *InvalidParameterError for unknown names or
	// out-of-range values.
	SetParameter(name string, value any) error

	// Recompute re-resolves every input, applies parameters (a bound live
	// control wins over a static value), and recomputes each output port's
	// contents, reusing existing handles. Returns *StateError unless the
	// module is started. Never called implicitly.
	Recompute() error

	// Bind attaches the routing layer's resolver. Called by the registry at
	// registration; callers never invoke it directly.
	Bind(Resolver)
}

// Clock abstracts wall time for the time-dependent variants (envelope stages,
// gain ramps) so tests can drive them deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, backed by time.Now.
type SystemClock struct{}

// Now returns the current wall time.
func (SystemClock) Now() time.Time { return time.Now() }
