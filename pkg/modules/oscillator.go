package modules

import (
	"math"
	"sync/atomic"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// Oscillator is the audio-rate source variant. Frequency follows
//
//	base * 2^octave * 2^(fine/12) * 2^freq_cv
//
// with freq_cv interpreted as 1V/oct, plus audio-rate FM from fm_in scaled by
// fm_depth in Hz per unit. The effective frequency is clamped to [20, 20000].
//
// Ports: freq_cv (cv in), fm_in (cv in), audio_out (audio out), sync_out
// (audio out, mirroring audio_out for oscillator-sync patches).
type Oscillator struct {
	module.Base

	src      *oscSource
	audioOut *signal.Ref
	syncOut  *signal.Ref
}

// oscSource is the phase-accumulator generator published on audio_out. The
// hot fields are written by Recompute on the driving thread and read per
// frame on the render goroutine, hence the atomics.
type oscSource struct {
	rate  float64
	phase float64
	noise noiseState

	freq    *signal.Ref // effective base frequency, Hz
	amp     *signal.Ref
	fmDepth *signal.Ref
	fm      atomic.Pointer[signal.Ref] // repointed each Recompute
	wave    atomic.Value               // string
}

func (s *oscSource) Sample() float64 {
	f := s.freq.Value()
	if fm := s.fm.Load(); fm != nil {
		f += fm.Value() * s.fmDepth.Value()
	}
	f = clampFreq(f)
	s.phase = stepPhase(s.phase, f, s.rate)
	wave, _ := s.wave.Load().(string)
	return waveValue(wave, s.phase, &s.noise) * s.amp.Value()
}

// NewOscillator builds an oscillator with the given patch-unique name.
func NewOscillator(name string, opts ...Option) *Oscillator {
	o := buildOptions(opts)
	osc := &Oscillator{Base: module.NewBase(name)}
	osc.SetClock(o.clock)

	osc.DefineInput("freq_cv", signal.TypeCV)
	osc.DefineInput("fm_in", signal.TypeCV)
	osc.audioOut = osc.DefineOutput("audio_out", signal.TypeAudio)
	osc.syncOut = osc.DefineOutput("sync_out", signal.TypeAudio)

	osc.DefineParam("freq", module.ParamSpec{Default: 440.0, Validate: module.RangeFloat(0, 20000)})
	osc.DefineParam("octave", module.ParamSpec{Default: 0.0, Validate: module.RangeFloat(-2, 2)})
	osc.DefineParam("fine", module.ParamSpec{Default: 0.0, Validate: module.RangeFloat(-12, 12)})
	osc.DefineParam("fm_depth", module.ParamSpec{Default: 100.0, Validate: module.RangeFloat(0, 10000)})
	osc.DefineParam("amp", module.ParamSpec{Default: 0.5, Validate: module.ClampFloat(0, 1)})
	osc.DefineParam("waveform", module.ParamSpec{Default: WaveSine, Validate: module.OneOf(Waveforms()...)})

	osc.src = &oscSource{
		rate:    o.sampleRate,
		freq:    signal.NewRef(signal.TypeCV),
		amp:     signal.NewRef(signal.TypeCV),
		fmDepth: signal.NewRef(signal.TypeCV),
	}
	osc.src.wave.Store(WaveSine)

	osc.OnStart = func() error {
		osc.audioOut.SetSource(osc.src)
		osc.syncOut.SetSource(osc.src)
		return nil
	}
	osc.OnStop = func() error {
		osc.audioOut.SetSource(nil)
		osc.syncOut.SetSource(nil)
		return nil
	}
	return osc
}

// Recompute implements module.Module.
func (o *Oscillator) Recompute() error {
	if err := o.EnsureStarted("recompute"); err != nil {
		return err
	}

	base := o.FloatParam("freq") *
		math.Pow(2, o.FloatParam("octave")) *
		math.Pow(2, o.FloatParam("fine")/12)

	// 1V/oct pitch CV multiplies; the control-rate part lands here, the
	// audio-rate FM part stays live inside the generator.
	cv := module.Resolve(o.Resolve("freq_cv"), 0)
	base *= math.Pow(2, cv.Value())

	o.src.freq.Set(clampFreq(base))
	o.src.amp.Set(o.FloatParam("amp"))
	o.src.fmDepth.Set(o.FloatParam("fm_depth"))
	o.src.wave.Store(o.StringParam("waveform"))

	fm := module.Live(o.Resolve("fm_in"))
	o.src.fm.Store(fm.Ref())
	return nil
}

// CurrentFrequency reports the effective base frequency after the last
// recomputation, before audio-rate FM.
func (o *Oscillator) CurrentFrequency() float64 {
	return o.src.freq.Value()
}
