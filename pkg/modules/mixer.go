package modules

import (
	"fmt"
	"sync/atomic"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// Mixer channel-count bounds.
const (
	minMixerInputs     = 2
	maxMixerInputs     = 8
	defaultMixerInputs = 4
)

// Mixer sums several audio inputs into one output:
//
//	audio_out = master * Σ in_i * level_i
//
// Only the active set participates: an input that is unconnected, or whose
// level is 0, is skipped entirely rather than summed as silence. Recompute
// rebuilds the active set as an immutable snapshot and swaps it under the
// output's stable handle, so render-side pulls never see a partial mix.
//
// Ports: in_1..in_N (audio in), audio_out (audio out).
type Mixer struct {
	module.Base

	inputs int
	out    *signal.Ref
	active atomic.Pointer[mixSnapshot]
}

type mixChannel struct {
	name  string
	in    *signal.Ref
	level float64
}

// mixSnapshot is the active set in force since the last recomputation.
type mixSnapshot struct {
	master   float64
	channels []mixChannel
}

func (m *mixSnapshot) sample() float64 {
	var sum float64
	for i := range m.channels {
		sum += m.channels[i].in.Sample() * m.channels[i].level
	}
	return sum * m.master
}

func (m *mixSnapshot) value() float64 {
	var sum float64
	for i := range m.channels {
		sum += m.channels[i].in.Value() * m.channels[i].level
	}
	return sum * m.master
}

// NewMixer builds a summing mixer. inputs is clamped to [2, 8]; zero
// selects 4.
func NewMixer(name string, inputs int, opts ...Option) *Mixer {
	o := buildOptions(opts)
	if inputs == 0 {
		inputs = defaultMixerInputs
	}
	if inputs < minMixerInputs {
		inputs = minMixerInputs
	}
	if inputs > maxMixerInputs {
		inputs = maxMixerInputs
	}

	m := &Mixer{Base: module.NewBase(name), inputs: inputs}
	m.SetClock(o.clock)

	for i := 1; i <= inputs; i++ {
		m.DefineInput(fmt.Sprintf("in_%d", i), signal.TypeAudio)
		m.DefineParam(fmt.Sprintf("level_%d", i), module.ParamSpec{Default: 1.0, Validate: module.ClampFloat(0, 1)})
	}
	m.out = m.DefineOutput("audio_out", signal.TypeAudio)
	m.DefineParam("master", module.ParamSpec{Default: 1.0, Validate: module.ClampFloat(0, 1)})

	m.OnStart = func() error {
		m.active.Store(&mixSnapshot{})
		m.out.SetSource(signal.SourceFunc(func() float64 {
			return m.active.Load().sample()
		}))
		return nil
	}
	m.OnStop = func() error {
		m.active.Store(&mixSnapshot{})
		m.out.SetSource(nil)
		m.out.Set(0)
		return nil
	}
	return m
}

// Recompute implements module.Module: it rebuilds the active set from the
// connected inputs and their levels.
func (m *Mixer) Recompute() error {
	if err := m.EnsureStarted("recompute"); err != nil {
		return err
	}

	snap := &mixSnapshot{master: m.FloatParam("master")}
	for i := 1; i <= m.inputs; i++ {
		name := fmt.Sprintf("in_%d", i)
		level := m.FloatParam(fmt.Sprintf("level_%d", i))
		if level == 0 {
			continue
		}
		in := module.Live(m.Resolve(name)).Ref()
		if in == nil {
			continue
		}
		snap.channels = append(snap.channels, mixChannel{name: name, in: in, level: level})
	}
	m.active.Store(snap)
	m.out.Set(snap.value())
	return nil
}

// ActiveInputs reports the input ports participating in the mix, in channel
// order, as of the last recomputation.
func (m *Mixer) ActiveInputs() []string {
	snap := m.active.Load()
	if snap == nil {
		return nil
	}
	names := make([]string, 0, len(snap.channels))
	for i := range snap.channels {
		names = append(names, snap.channels[i].name)
	}
	return names
}

// Channels reports the number of inputs.
func (m *Mixer) Channels() int { return m.inputs }
