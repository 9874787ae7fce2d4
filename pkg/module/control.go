package module

import "github.com/aretw0/patchbay/pkg/signal"

// Control is the tagged variant behind every "number or live reference"
// parameter. Resolution happens at recomputation time with the explicit
// precedence rule: a bound live reference wins over the static value.
type Control struct {
	live     *signal.Ref
	constant float64
}

// Constant builds a control pinned to a static value.
func Constant(v float64) Control {
	return Control{constant: v}
}

// Live builds a control driven by a reference. A nil or default (unconnected)
// ref degrades to the fallback passed to Value.
func Live(r *signal.Ref) Control {
	if signal.IsDefault(r) {
		return Control{}
	}
	return Control{live: r}
}

// Resolve combines both: the live ref when actually bound, else the constant.
func Resolve(r *signal.Ref, fallback float64) Control {
	if signal.IsDefault(r) {
		return Constant(fallback)
	}
	return Control{live: r, constant: fallback}
}

// IsLive reports whether a live reference drives this control.
func (c Control) IsLive() bool { return c.live != nil }

// Value reads the control now: the live reference's current scalar when bound,
// otherwise the constant.
func (c Control) Value() float64 {
	if c.live != nil {
		return c.live.Value()
	}
	return c.constant
}

// Ref returns the live reference, or nil for a constant control.
func (c Control) Ref() *signal.Ref { return c.live }
