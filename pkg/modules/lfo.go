package modules

import (
	"time"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// LFO shares the Oscillator's waveform machinery but runs at control rate:
// its phase advances with wall time across recomputations and its only output
// is cv_out, so the type system keeps it away from physical output channels.
//
// Frequency is freq + freq_cv in Hz (additive, unlike the Oscillator's
// 1V/oct pitch input), clamped to [0.01, 100].
//
// Ports: freq_cv (cv in), cv_out (cv out).
type LFO struct {
	module.Base

	out   *signal.Ref
	phase float64
	noise noiseState
	last  time.Time
}

// NewLFO builds a low-frequency oscillator.
func NewLFO(name string, opts ...Option) *LFO {
	o := buildOptions(opts)
	l := &LFO{Base: module.NewBase(name)}
	l.SetClock(o.clock)

	l.DefineInput("freq_cv", signal.TypeCV)
	l.out = l.DefineOutput("cv_out", signal.TypeCV)

	l.DefineParam("freq", module.ParamSpec{Default: 1.0, Validate: module.RangeFloat(0.01, 100)})
	l.DefineParam("amp", module.ParamSpec{Default: 1.0, Validate: module.ClampFloat(0, 10)})
	l.DefineParam("offset", module.ParamSpec{Default: 0.0, Validate: module.ClampFloat(-5, 5)})
	l.DefineParam("waveform", module.ParamSpec{Default: WaveSine, Validate: module.OneOf(Waveforms()...)})

	l.OnStart = func() error {
		l.phase = 0
		l.last = l.Clock().Now()
		return nil
	}
	return l
}

// Recompute implements module.Module: it advances the phase by the time
// elapsed since the previous recomputation and repoints cv_out's scalar.
func (l *LFO) Recompute() error {
	if err := l.EnsureStarted("recompute"); err != nil {
		return err
	}

	freq := l.FloatParam("freq")
	if cv := module.Resolve(l.Resolve("freq_cv"), 0); cv.IsLive() {
		freq += cv.Value()
	}
	if freq < 0.01 {
		freq = 0.01
	}
	if freq > 100 {
		freq = 100
	}

	now := l.Clock().Now()
	dt := now.Sub(l.last).Seconds()
	l.last = now
	if dt > 0 {
		l.phase = stepPhase(l.phase, freq*dt, 1)
	}

	v := waveValue(l.StringParam("waveform"), l.phase, &l.noise)
	l.out.Set(v*l.FloatParam("amp") + l.FloatParam("offset"))
	return nil
}

// Value reports the current control output level.
func (l *LFO) Value() float64 { return l.out.Value() }
