package modules

import (
	"math"
	"sync/atomic"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// Filter is a single low-pass stage over audio_in. The effective cutoff is
//
//	cutoff + cutoff_cv * cv_depth   (additive, in Hz)
//
// clamped to [20, 20000]; resonance is clamped to [0.1, 40] and feeds the
// damping term of a state-variable filter kept below self-oscillation.
//
// Ports: audio_in (audio in), cutoff_cv (cv in), audio_out (audio out).
type Filter struct {
	module.Base

	src *filterSource
	out *signal.Ref
}

// filterSource is a Chamberlin state-variable filter pulled per frame. The
// upstream generator is repointed atomically at each Recompute; lp/bp state
// stays on the render side.
type filterSource struct {
	rate float64
	lp   float64
	bp   float64

	in     atomic.Pointer[signal.Ref]
	cutoff *signal.Ref
	q      *signal.Ref
}

func (s *filterSource) Sample() float64 {
	var x float64
	if in := s.in.Load(); in != nil {
		x = in.Sample()
	}
	f := 2 * math.Sin(math.Pi*s.cutoff.Value()/s.rate)
	if f > 1.5 {
		f = 1.5
	}
	damp := 1 / s.q.Value()
	hp := x - s.lp - damp*s.bp
	s.bp += f * hp
	s.lp += f * s.bp
	return s.lp
}

// NewFilter builds a low-pass filter.
func NewFilter(name string, opts ...Option) *Filter {
	o := buildOptions(opts)
	f := &Filter{Base: module.NewBase(name)}
	f.SetClock(o.clock)

	f.DefineInput("audio_in", signal.TypeAudio)
	f.DefineInput("cutoff_cv", signal.TypeCV)
	f.out = f.DefineOutput("audio_out", signal.TypeAudio)

	f.DefineParam("cutoff", module.ParamSpec{Default: 1000.0, Validate: module.RangeFloat(20, 20000)})
	f.DefineParam("resonance", module.ParamSpec{Default: 1.0, Validate: module.RangeFloat(0.1, 40)})
	f.DefineParam("cv_depth", module.ParamSpec{Default: 2000.0, Validate: module.RangeFloat(0, 10000)})

	f.src = &filterSource{
		rate:   o.sampleRate,
		cutoff: signal.NewRef(signal.TypeCV),
		q:      signal.NewRef(signal.TypeCV),
	}
	f.src.cutoff.Set(1000)
	f.src.q.Set(1)

	f.OnStart = func() error {
		f.src.lp, f.src.bp = 0, 0
		f.out.SetSource(f.src)
		return nil
	}
	f.OnStop = func() error {
		f.out.SetSource(nil)
		return nil
	}
	return f
}

// Recompute implements module.Module.
func (f *Filter) Recompute() error {
	if err := f.EnsureStarted("recompute"); err != nil {
		return err
	}

	cutoff := f.FloatParam("cutoff")
	if cv := module.Resolve(f.Resolve("cutoff_cv"), 0); cv.IsLive() {
		cutoff += cv.Value() * f.FloatParam("cv_depth")
	}
	f.src.cutoff.Set(clampFreq(cutoff))

	// Live modulation may push Q outside the stable range; that is a
	// fail-soft clamp, unlike SetParameter which rejects.
	q := f.FloatParam("resonance")
	if q < 0.1 {
		q = 0.1
	}
	if q > 40 {
		q = 40
	}
	f.src.q.Set(q)

	f.src.in.Store(module.Live(f.Resolve("audio_in")).Ref())
	return nil
}

// EffectiveCutoff reports the cutoff after the last recomputation, Hz.
func (f *Filter) EffectiveCutoff() float64 { return f.src.cutoff.Value() }
