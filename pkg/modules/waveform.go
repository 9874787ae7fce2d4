package modules

import (
	"math"

	"github.com/aretw0/patchbay/pkg/module"
)

// DefaultSampleRate is the render cadence modules assume unless configured
// otherwise. The engine adapters run at the same rate.
const DefaultSampleRate = 44100

// Waveform names shared by Oscillator and LFO.
const (
	WaveSine     = "sine"
	WaveSaw      = "saw"
	WaveSquare   = "square"
	WaveTriangle = "triangle"
	WaveNoise    = "noise"
)

// Waveforms lists the available waveform names.
func Waveforms() []string {
	return []string{WaveSine, WaveSaw, WaveSquare, WaveTriangle, WaveNoise}
}

const noiseSeed = 0x7FFFFF // 23-bit LFSR seed

// noiseState is a 23-bit linear feedback shift register, stepped once per
// frame when the noise waveform is selected.
type noiseState uint32

func (n *noiseState) next() float64 {
	s := uint32(*n)
	if s == 0 {
		s = noiseSeed
	}
	bit := ((s >> 22) ^ (s >> 17)) & 1
	s = ((s << 1) | bit) & noiseSeed
	*n = noiseState(s)
	return float64(s)/float64(noiseSeed)*2 - 1
}

// waveValue evaluates one waveform at a phase in [0, 1).
func waveValue(wave string, phase float64, noise *noiseState) float64 {
	switch wave {
	case WaveSaw:
		return 2*phase - 1
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	case WaveNoise:
		return noise.next()
	default: // sine
		return math.Sin(2 * math.Pi * phase)
	}
}

// stepPhase advances a phase accumulator by freq/rate and wraps into [0, 1).
func stepPhase(phase, freq, rate float64) float64 {
	phase += freq / rate
	if phase >= 1 {
		phase -= math.Floor(phase)
	}
	if phase < 0 {
		phase += 1 - math.Floor(phase)
	}
	return phase
}

// clampFreq keeps an effective frequency inside the audible/usable band.
func clampFreq(f float64) float64 {
	if f < 20 {
		return 20
	}
	if f > 20000 {
		return 20000
	}
	return f
}

// Option configures construction-time concerns shared by the variants.
type Option func(*options)

type options struct {
	sampleRate float64
	clock      module.Clock
}

// WithSampleRate overrides the render cadence a generator assumes.
func WithSampleRate(rate float64) Option {
	return func(o *options) {
		if rate > 0 {
			o.sampleRate = rate
		}
	}
}

// WithClock injects a time source for the time-dependent variants. Tests use a
// manual clock.
func WithClock(c module.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{sampleRate: DefaultSampleRate, clock: module.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
