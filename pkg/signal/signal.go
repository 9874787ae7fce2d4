package signal

// Type classifies what a port carries and what a connection transports.
// Connections are only valid between ports of the same type.
type Type string

const (
	// TypeAudio is an audible-rate signal. Only audio outputs may be routed
	// to a physical output channel.
	TypeAudio Type = "audio"
	// TypeCV is a control-voltage signal used to modulate parameters.
	TypeCV Type = "cv"
	// TypeGate is a binary on/off control signal (high >= 0.5).
	TypeGate Type = "gate"
	// TypeTrigger is an instantaneous pulse control signal.
	TypeTrigger Type = "trigger"
)

// Valid reports whether t is one of the defined signal types.
func (t Type) Valid() bool {
	switch t {
	case TypeAudio, TypeCV, TypeGate, TypeTrigger:
		return true
	}
	return false
}

// Default returns the defined fallback scalar for an unconnected input of this
// type: silence for audio, zero volts for CV, low for gate, no pulse for
// trigger. All happen to be zero today; callers must still go through this so
// the convention stays in one place.
func (t Type) Default() float64 {
	return 0
}

// Direction tells whether a port produces or consumes.
type Direction string

const (
	// In marks a consuming port. At most one incoming connection at a time.
	In Direction = "in"
	// Out marks a producing port. May fan out to any number of destinations.
	Out Direction = "out"
)

// Port is a named, directional, typed attachment point on a module.
// Within one module, (Direction, Name) is unique.
type Port struct {
	Module    string    `json:"module"`
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Type      Type      `json:"type"`
}

// PortRef identifies a port by module and port name, without direction or type.
type PortRef struct {
	Module string `json:"module"`
	Port   string `json:"port"`
}

func (p PortRef) String() string {
	return p.Module + "." + p.Port
}

// Connection is a directed, typed edge from one source output port to one
// destination input port. The destination is the key: a later connection to the
// same destination replaces the edge.
type Connection struct {
	Source      PortRef `json:"source"`
	Destination PortRef `json:"destination"`
	Type        Type    `json:"type"`
}

func (c Connection) String() string {
	return c.Source.String() + " -> " + c.Destination.String() + " (" + string(c.Type) + ")"
}
