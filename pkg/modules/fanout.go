package modules

import (
	"fmt"
	"sync/atomic"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// Fanout output-count bounds.
const (
	minFanout     = 2
	maxFanout     = 8
	defaultFanout = 4
)

// Fanout mirrors one input onto several outputs so a single source can feed
// multiple destinations through independent cables. Every output carries the
// same signal type as the input and follows it live: repatching the input
// repoints all branches at once.
//
// Ports: in (typed in), out_1..out_N (typed out).
type Fanout struct {
	module.Base

	in   atomic.Pointer[signal.Ref]
	outs []*signal.Ref
}

// NewFanout builds a fan-out (multiple) for the given signal type. outputs
// is clamped to [2, 8]; zero selects 4.
func NewFanout(name string, t signal.Type, outputs int, opts ...Option) *Fanout {
	o := buildOptions(opts)
	if outputs == 0 {
		outputs = defaultFanout
	}
	if outputs < minFanout {
		outputs = minFanout
	}
	if outputs > maxFanout {
		outputs = maxFanout
	}

	f := &Fanout{Base: module.NewBase(name)}
	f.SetClock(o.clock)

	f.DefineInput("in", t)
	for i := 1; i <= outputs; i++ {
		f.outs = append(f.outs, f.DefineOutput(fmt.Sprintf("out_%d", i), t))
	}

	f.OnStart = func() error {
		src := signal.SourceFunc(func() float64 {
			if in := f.in.Load(); in != nil {
				return in.Sample()
			}
			return 0
		})
		for _, out := range f.outs {
			out.SetSource(src)
		}
		return nil
	}
	f.OnStop = func() error {
		for _, out := range f.outs {
			out.SetSource(nil)
			out.Set(0)
		}
		return nil
	}
	return f
}

// Recompute implements module.Module: it re-resolves the input and mirrors
// its control value onto every branch.
func (f *Fanout) Recompute() error {
	if err := f.EnsureStarted("recompute"); err != nil {
		return err
	}

	in := module.Live(f.Resolve("in")).Ref()
	f.in.Store(in)

	var v float64
	if in != nil {
		v = in.Value()
	}
	for _, out := range f.outs {
		out.Set(v)
	}
	return nil
}

// Branches reports the number of outputs.
func (f *Fanout) Branches() int { return len(f.outs) }
