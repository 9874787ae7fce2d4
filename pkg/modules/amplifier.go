package modules

import (
	"math"
	"sync/atomic"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// Response curve names for the Amplifier's gain control.
const (
	CurveLinear      = "linear"
	CurveExponential = "exponential"
	CurveLogarithmic = "logarithmic"
)

// Amplifier multiplies audio_in by a gain. When gain_cv is bound, the live
// reference drives gain through the selected response curve; otherwise the
// static gain parameter applies, smoothed by a one-pole ramp over ramp_time
// seconds so a parameter jump does not click.
//
// Ports: audio_in (audio in), gain_cv (cv in), audio_out (audio out),
// envelope_out (cv out, reporting the gain actually applied to the audio
// path, smoothing included).
type Amplifier struct {
	module.Base

	src    *ampSource
	out    *signal.Ref
	envOut *signal.Ref
}

// ampSource applies gain per frame. target/curve are repointed by Recompute;
// the smoothing state lives on the render side.
type ampSource struct {
	rate     float64
	smoothed float64

	applied atomic.Uint64 // float bits of the curved gain last applied

	in     atomic.Pointer[signal.Ref]
	gainCV atomic.Pointer[signal.Ref] // nil when the static parameter drives
	target *signal.Ref                // static gain target
	ramp   *signal.Ref                // seconds
	curve  atomic.Value               // string
}

func (s *ampSource) gain() float64 {
	var g float64
	if cv := s.gainCV.Load(); cv != nil {
		g = cv.Value()
	} else {
		// One-pole ramp toward the static target.
		target := s.target.Value()
		rt := s.ramp.Value()
		if rt <= 0 {
			s.smoothed = target
		} else {
			coef := 1 - math.Exp(-1/(rt*s.rate))
			s.smoothed += (target - s.smoothed) * coef
		}
		g = s.smoothed
	}
	g = applyCurve(curveName(&s.curve), g)
	s.applied.Store(math.Float64bits(g))
	return g
}

// appliedGain reports the curved gain last applied to a frame.
func (s *ampSource) appliedGain() float64 {
	return math.Float64frombits(s.applied.Load())
}

func (s *ampSource) Sample() float64 {
	var x float64
	if in := s.in.Load(); in != nil {
		x = in.Sample()
	}
	return x * s.gain()
}

func curveName(v *atomic.Value) string {
	s, _ := v.Load().(string)
	return s
}

func applyCurve(curve string, g float64) float64 {
	if g < 0 {
		g = 0
	}
	switch curve {
	case CurveExponential:
		return g * g
	case CurveLogarithmic:
		return math.Log2(g + 1)
	default:
		return g
	}
}

// NewAmplifier builds a voltage-controlled amplifier.
func NewAmplifier(name string, opts ...Option) *Amplifier {
	o := buildOptions(opts)
	a := &Amplifier{Base: module.NewBase(name)}
	a.SetClock(o.clock)

	a.DefineInput("audio_in", signal.TypeAudio)
	a.DefineInput("gain_cv", signal.TypeCV)
	a.out = a.DefineOutput("audio_out", signal.TypeAudio)
	a.envOut = a.DefineOutput("envelope_out", signal.TypeCV)

	a.DefineParam("gain", module.ParamSpec{Default: 1.0, Validate: module.RangeFloat(0, 2)})
	a.DefineParam("ramp_time", module.ParamSpec{Default: 0.01, Validate: module.ClampFloat(0, 1)})
	a.DefineParam("curve", module.ParamSpec{Default: CurveLinear, Validate: module.OneOf(CurveLinear, CurveExponential, CurveLogarithmic)})

	a.src = &ampSource{
		rate:   o.sampleRate,
		target: signal.NewRef(signal.TypeCV),
		ramp:   signal.NewRef(signal.TypeCV),
	}
	a.src.target.Set(1)
	a.src.curve.Store(CurveLinear)

	a.OnStart = func() error {
		a.src.smoothed = a.FloatParam("gain")
		a.src.applied.Store(math.Float64bits(applyCurve(a.StringParam("curve"), a.src.smoothed)))
		a.out.SetSource(a.src)
		a.envOut.SetSource(signal.SourceFunc(a.src.appliedGain))
		return nil
	}
	a.OnStop = func() error {
		a.out.SetSource(nil)
		a.envOut.SetSource(nil)
		return nil
	}
	return a
}

// Recompute implements module.Module.
func (a *Amplifier) Recompute() error {
	if err := a.EnsureStarted("recompute"); err != nil {
		return err
	}

	a.src.in.Store(module.Live(a.Resolve("audio_in")).Ref())
	a.src.target.Set(a.FloatParam("gain"))
	a.src.ramp.Set(a.FloatParam("ramp_time"))
	a.src.curve.Store(a.StringParam("curve"))

	gain := module.Resolve(a.Resolve("gain_cv"), a.FloatParam("gain"))
	a.src.gainCV.Store(gain.Ref())

	if gain.IsLive() {
		a.envOut.Set(applyCurve(a.StringParam("curve"), gain.Value()))
	} else {
		// The ramp is still converging; mirror the gain in force, not the
		// target it is heading for.
		a.envOut.Set(a.src.appliedGain())
	}
	return nil
}

// EffectiveGain reports the gain in force after the last recomputation.
func (a *Amplifier) EffectiveGain() float64 { return a.envOut.Value() }

// Mute zeroes the static gain parameter.
func (a *Amplifier) Mute() error { return a.SetParameter("gain", 0.0) }

// Unmute restores the static gain parameter.
func (a *Amplifier) Unmute(gain float64) error { return a.SetParameter("gain", gain) }
