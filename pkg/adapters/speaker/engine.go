// Package speaker implements the audio engine boundary on a real output
// device via oto. Bound handles are pulled from oto's render goroutine at the
// configured sample rate, stereo, 32-bit float little-endian.
package speaker

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"github.com/aretw0/patchbay/pkg/signal"
)

// DefaultSampleRate is the device cadence used when none is configured.
const DefaultSampleRate = 44100

// channelCount is fixed: channel 0 is left, channel 1 is right.
const channelCount = 2

// Engine plays bound handles on the system's default output device.
//
// BindChannel and UnbindChannel may be called while playing: the render
// goroutine reads the binding table through atomics and picks the change up on
// the next frame.
type Engine struct {
	sampleRate int

	ctx    *oto.Context
	player *oto.Player

	bindings [channelCount]atomic.Pointer[signal.Ref]
}

// Option configures the engine.
type Option func(*Engine)

// WithSampleRate overrides the device sample rate.
func WithSampleRate(rate int) Option {
	return func(e *Engine) {
		if rate > 0 {
			e.sampleRate = rate
		}
	}
}

// New creates a closed engine. Begin opens the device.
func New(opts ...Option) *Engine {
	e := &Engine{sampleRate: DefaultSampleRate}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin opens the output device and starts pulling. Idempotent. The oto
// context is created once per process and reused across Begin/End cycles.
func (e *Engine) Begin() error {
	if e.player != nil {
		return nil
	}
	if e.ctx == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   e.sampleRate,
			ChannelCount: channelCount,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			return fmt.Errorf("speaker: open device: %w", err)
		}
		<-ready
		e.ctx = ctx
	}
	e.player = e.ctx.NewPlayer(&mixReader{engine: e})
	e.player.Play()
	return nil
}

// End stops playback. Idempotent. Bindings survive for a later Begin.
func (e *Engine) End() error {
	if e.player == nil {
		return nil
	}
	err := e.player.Close()
	e.player = nil
	if err != nil {
		return fmt.Errorf("speaker: close player: %w", err)
	}
	return nil
}

// BindChannel routes a handle to a physical channel (0 left, 1 right).
func (e *Engine) BindChannel(channel int, src *signal.Ref) error {
	if channel < 0 || channel >= channelCount {
		return fmt.Errorf("speaker: channel %d out of range [0, %d)", channel, channelCount)
	}
	if src == nil {
		return fmt.Errorf("speaker: channel %d: nil source handle", channel)
	}
	e.bindings[channel].Store(src)
	return nil
}

// UnbindChannel silences a channel.
func (e *Engine) UnbindChannel(channel int) {
	if channel < 0 || channel >= channelCount {
		return
	}
	e.bindings[channel].Store(nil)
}

// mixReader is the stream oto pulls: interleaved stereo float32 LE frames
// assembled from whatever handles are currently bound. Unbound channels are
// silent.
type mixReader struct {
	engine *Engine
}

func (r *mixReader) Read(p []byte) (int, error) {
	const frameBytes = channelCount * 4
	frames := len(p) / frameBytes
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channelCount; ch++ {
			var v float64
			if ref := r.engine.bindings[ch].Load(); ref != nil {
				v = ref.Sample()
			}
			if v > 1 {
				v = 1
			}
			if v < -1 {
				v = -1
			}
			off := i*frameBytes + ch*4
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(float32(v)))
		}
	}
	return frames * frameBytes, nil
}
