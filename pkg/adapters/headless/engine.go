// Package headless implements the audio engine boundary without a sound
// device. The caller drives rendering explicitly with Step, which makes it the
// engine of choice for tests, CI and offline analysis.
package headless

import (
	"fmt"

	"github.com/aretw0/patchbay/pkg/signal"
)

// DefaultChannels is the channel count used when none is configured.
const DefaultChannels = 2

// Engine renders on demand. Each Step pulls one frame per bound channel per
// requested frame, exactly as a device-backed engine would at its cadence, and
// remembers the last value per channel for inspection.
//
// Like the rest of the core it expects a single driving thread.
type Engine struct {
	channels int
	open     bool

	bindings map[int]*signal.Ref
	last     map[int]float64
	frames   int64
}

// New creates a closed engine with the given channel count (0 selects 2).
func New(channels int) *Engine {
	if channels <= 0 {
		channels = DefaultChannels
	}
	return &Engine{
		channels: channels,
		bindings: make(map[int]*signal.Ref),
		last:     make(map[int]float64),
	}
}

// Begin opens the engine. Idempotent.
func (e *Engine) Begin() error {
	e.open = true
	return nil
}

// End closes the engine and silences every channel. Idempotent. Bindings
// survive so a later Begin resumes where the patch left off.
func (e *Engine) End() error {
	e.open = false
	for ch := range e.last {
		e.last[ch] = 0
	}
	return nil
}

// BindChannel routes a handle to an output channel.
func (e *Engine) BindChannel(channel int, src *signal.Ref) error {
	if channel < 0 || channel >= e.channels {
		return fmt.Errorf("bind: channel %d out of range [0, %d)", channel, e.channels)
	}
	if src == nil {
		return fmt.Errorf("bind: channel %d: nil source handle", channel)
	}
	e.bindings[channel] = src
	return nil
}

// UnbindChannel silences a channel.
func (e *Engine) UnbindChannel(channel int) {
	delete(e.bindings, channel)
	delete(e.last, channel)
}

// Step renders n frames, pulling every bound handle once per frame.
func (e *Engine) Step(n int) error {
	if !e.open {
		return fmt.Errorf("step: engine not open")
	}
	for i := 0; i < n; i++ {
		for ch, ref := range e.bindings {
			e.last[ch] = ref.Sample()
		}
		e.frames++
	}
	return nil
}

// Last reports the most recent value rendered on a channel.
func (e *Engine) Last(channel int) float64 { return e.last[channel] }

// Frames reports how many frames have been rendered since creation.
func (e *Engine) Frames() int64 { return e.frames }

// Bound reports whether a channel currently has a handle.
func (e *Engine) Bound(channel int) bool {
	_, ok := e.bindings[channel]
	return ok
}
