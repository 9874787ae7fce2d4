package modules

import (
	"sync/atomic"
	"time"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// Envelope stage names.
const (
	StageIdle    = "idle"
	StageAttack  = "attack"
	StageDecay   = "decay"
	StageSustain = "sustain"
	StageRelease = "release"
)

// Envelope is the ADSR generator. Trigger enters Attack, ramping the level
// from its current value to 1 over attack_time; Attack completion enters
// Decay toward sustain_level over decay_time; Decay completion holds Sustain.
// Release ramps the current level to 0 over release_time, then Idle.
// Re-triggering during Decay or Release restarts Attack from the current
// level, so there is never a level discontinuity.
//
// State transitions are driven solely by Trigger/Release (or by edges on a
// bound gate_in during Recompute); Recompute itself only re-applies timing
// parameters to the already-running machine.
//
// Ports: gate_in (gate in), cv_out (cv out).
type Envelope struct {
	module.Base

	out      *signal.Ref
	stage    atomic.Pointer[envStage]
	lastGate bool
}

// envStage is the immutable descriptor the level function runs over. A new
// descriptor is swapped in on every transition or timing change, so the
// render-side level computation never sees a half-updated machine.
type envStage struct {
	gateOn     bool // attack/decay/sustain when true, release/idle when false
	idle       bool
	start      time.Time
	startLevel float64

	attack  float64
	decay   float64
	sustain float64
	release float64
}

// level is a pure function of the descriptor and the current time.
func (s *envStage) level(now time.Time) float64 {
	if s == nil || s.idle {
		return 0
	}
	dt := now.Sub(s.start).Seconds()
	if dt < 0 {
		dt = 0
	}
	if s.gateOn {
		if dt < s.attack {
			return s.startLevel + (1-s.startLevel)*dt/s.attack
		}
		dt -= s.attack
		if dt < s.decay {
			return 1 + (s.sustain-1)*dt/s.decay
		}
		return s.sustain
	}
	if dt < s.release {
		return s.startLevel * (1 - dt/s.release)
	}
	return 0
}

func (s *envStage) name(now time.Time) string {
	if s == nil || s.idle {
		return StageIdle
	}
	dt := now.Sub(s.start).Seconds()
	if s.gateOn {
		switch {
		case dt < s.attack:
			return StageAttack
		case dt < s.attack+s.decay:
			return StageDecay
		default:
			return StageSustain
		}
	}
	if dt < s.release {
		return StageRelease
	}
	return StageIdle
}

// NewEnvelope builds an ADSR envelope generator.
func NewEnvelope(name string, opts ...Option) *Envelope {
	o := buildOptions(opts)
	e := &Envelope{Base: module.NewBase(name)}
	e.SetClock(o.clock)

	e.DefineInput("gate_in", signal.TypeGate)
	e.out = e.DefineOutput("cv_out", signal.TypeCV)

	e.DefineParam("attack", module.ParamSpec{Default: 0.01, Validate: module.RangeFloat(0.001, 5)})
	e.DefineParam("decay", module.ParamSpec{Default: 0.1, Validate: module.RangeFloat(0.001, 5)})
	e.DefineParam("sustain", module.ParamSpec{Default: 0.5, Validate: module.RangeFloat(0, 1)})
	e.DefineParam("release", module.ParamSpec{Default: 1.0, Validate: module.RangeFloat(0.001, 10)})

	e.OnStart = func() error {
		e.stage.Store(&envStage{idle: true})
		e.publishSource()
		return nil
	}
	e.OnStop = func() error {
		e.stage.Store(&envStage{idle: true})
		e.out.SetSource(nil)
		e.out.Set(0)
		return nil
	}
	return e
}

// publishSource lets audio-rate consumers pull a smooth level curve while
// control-rate consumers keep reading the scalar refreshed by Recompute.
func (e *Envelope) publishSource() {
	e.out.SetSource(signal.SourceFunc(func() float64 {
		return e.stage.Load().level(e.Clock().Now())
	}))
}

func (e *Envelope) swap(gateOn, idle bool) {
	now := e.Clock().Now()
	cur := e.stage.Load()
	e.stage.Store(&envStage{
		gateOn:     gateOn,
		idle:       idle,
		start:      now,
		startLevel: cur.level(now),
		attack:     e.FloatParam("attack"),
		decay:      e.FloatParam("decay"),
		sustain:    e.FloatParam("sustain"),
		release:    e.FloatParam("release"),
	})
	e.out.Set(e.stage.Load().level(now))
}

// Trigger enters Attack from any stage, starting at the current level.
func (e *Envelope) Trigger() error {
	if err := e.EnsureStarted("trigger"); err != nil {
		return err
	}
	e.swap(true, false)
	return nil
}

// Release enters Release from Attack, Decay or Sustain; a no-op while Idle.
func (e *Envelope) Release() error {
	if err := e.EnsureStarted("release"); err != nil {
		return err
	}
	cur := e.stage.Load()
	if cur == nil || cur.idle || !cur.gateOn {
		return nil
	}
	e.swap(false, false)
	return nil
}

// Recompute implements module.Module: it re-applies timing parameters to the
// running machine and maps gate_in edges to Trigger/Release. It never drives
// a transition by itself.
func (e *Envelope) Recompute() error {
	if err := e.EnsureStarted("recompute"); err != nil {
		return err
	}

	if gate := module.Resolve(e.Resolve("gate_in"), 0); gate.IsLive() {
		high := gate.Value() >= 0.5
		switch {
		case high && !e.lastGate:
			if err := e.Trigger(); err != nil {
				return err
			}
		case !high && e.lastGate:
			if err := e.Release(); err != nil {
				return err
			}
		}
		e.lastGate = high
	} else {
		// An unpatched gate clears edge state, so re-connecting a gate that
		// is already high still counts as a rising edge.
		e.lastGate = false
	}

	// Refresh timing on the descriptor, preserving position and level.
	now := e.Clock().Now()
	cur := e.stage.Load()
	next := *cur
	next.attack = e.FloatParam("attack")
	next.decay = e.FloatParam("decay")
	next.sustain = e.FloatParam("sustain")
	next.release = e.FloatParam("release")
	e.stage.Store(&next)

	e.out.Set(e.stage.Load().level(now))
	return nil
}

// Level reports the envelope level right now.
func (e *Envelope) Level() float64 {
	if e.State() != module.StateStarted {
		return 0
	}
	return e.stage.Load().level(e.Clock().Now())
}

// Stage reports the FSM stage right now.
func (e *Envelope) Stage() string {
	if e.State() != module.StateStarted {
		return StageIdle
	}
	return e.stage.Load().name(e.Clock().Now())
}
