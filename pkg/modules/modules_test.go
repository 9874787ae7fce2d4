package modules

import (
	"time"

	"github.com/aretw0/patchbay/pkg/signal"
)

// manualClock drives the time-dependent variants deterministically.
type manualClock struct {
	t time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Unix(1000, 0)}
}

func (c *manualClock) Now() time.Time { return c.t }

func (c *manualClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// patchResolver stands in for the routing layer: it maps "module.port" keys
// to bound handles and leaves everything else unconnected.
type patchResolver map[string]*signal.Ref

func (p patchResolver) ResolveInput(mod, port string) (*signal.Ref, error) {
	if r, ok := p[mod+"."+port]; ok {
		return r, nil
	}
	return nil, nil
}

func cvRef(v float64) *signal.Ref {
	r := signal.NewRef(signal.TypeCV)
	r.Set(v)
	return r
}

func audioRef(v float64) *signal.Ref {
	r := signal.NewRef(signal.TypeAudio)
	r.Set(v)
	return r
}

func gateRef(v float64) *signal.Ref {
	r := signal.NewRef(signal.TypeGate)
	r.Set(v)
	return r
}
