package modules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/patchbay/pkg/module"
)

func newTestEnvelope(t *testing.T) (*Envelope, *manualClock) {
	t.Helper()
	clock := newManualClock()
	env := NewEnvelope("adsr", WithClock(clock))
	require.NoError(t, env.Configure(map[string]any{
		"attack":  0.1,
		"decay":   0.2,
		"sustain": 0.5,
		"release": 0.3,
	}))
	require.NoError(t, env.Start())
	return env, clock
}

func TestEnvelopeRequiresStart(t *testing.T) {
	env := NewEnvelope("adsr")

	var stateErr *module.StateError
	require.ErrorAs(t, env.Trigger(), &stateErr)
	require.ErrorAs(t, env.Release(), &stateErr)
	require.ErrorAs(t, env.Recompute(), &stateErr)
}

func TestEnvelopeIdleUntilTriggered(t *testing.T) {
	env, clock := newTestEnvelope(t)

	assert.Equal(t, StageIdle, env.Stage())
	assert.Zero(t, env.Level())

	clock.Advance(time.Hour)
	assert.Zero(t, env.Level())
}

func TestEnvelopeTraversesADSR(t *testing.T) {
	env, clock := newTestEnvelope(t)
	require.NoError(t, env.Trigger())

	// Halfway through a 0.1s attack from level 0.
	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, StageAttack, env.Stage())
	assert.InDelta(t, 0.5, env.Level(), 1e-9)

	// Attack complete, decay begins at 1.
	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, StageDecay, env.Stage())
	assert.InDelta(t, 1.0, env.Level(), 1e-9)

	// Halfway through a 0.2s decay toward sustain 0.5.
	clock.Advance(100 * time.Millisecond)
	assert.InDelta(t, 0.75, env.Level(), 1e-9)

	// Sustain holds indefinitely.
	clock.Advance(time.Minute)
	assert.Equal(t, StageSustain, env.Stage())
	assert.InDelta(t, 0.5, env.Level(), 1e-9)

	// Release ramps from the sustain level over 0.3s.
	require.NoError(t, env.Release())
	clock.Advance(150 * time.Millisecond)
	assert.Equal(t, StageRelease, env.Stage())
	assert.InDelta(t, 0.25, env.Level(), 1e-9)

	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, StageIdle, env.Stage())
	assert.Zero(t, env.Level())
}

func TestEnvelopeReleaseFromMidAttack(t *testing.T) {
	env, clock := newTestEnvelope(t)
	require.NoError(t, env.Trigger())

	clock.Advance(50 * time.Millisecond) // level 0.5
	require.NoError(t, env.Release())

	// Release starts from the current level, no discontinuity.
	assert.InDelta(t, 0.5, env.Level(), 1e-9)
	clock.Advance(150 * time.Millisecond)
	assert.InDelta(t, 0.25, env.Level(), 1e-9)
}

func TestEnvelopeRetriggerRestartsAttackFromCurrentLevel(t *testing.T) {
	env, clock := newTestEnvelope(t)
	require.NoError(t, env.Trigger())

	// Ride the attack to completion, then release partway down.
	clock.Advance(400 * time.Millisecond) // sustain at 0.5
	require.NoError(t, env.Release())
	clock.Advance(150 * time.Millisecond) // release at 0.25

	require.NoError(t, env.Trigger())
	assert.InDelta(t, 0.25, env.Level(), 1e-9)

	// Attack ramps the remaining 0.75 over the full attack time.
	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, StageAttack, env.Stage())
	assert.InDelta(t, 0.625, env.Level(), 1e-9)
}

func TestEnvelopeReleaseWhileIdleIsNoOp(t *testing.T) {
	env, clock := newTestEnvelope(t)

	require.NoError(t, env.Release())
	assert.Equal(t, StageIdle, env.Stage())

	clock.Advance(time.Second)
	assert.Zero(t, env.Level())
}

func TestEnvelopeGateEdgesDriveTransitions(t *testing.T) {
	clock := newManualClock()
	gate := gateRef(0)
	env := NewEnvelope("adsr", WithClock(clock))
	env.Bind(patchResolver{"adsr.gate_in": gate})
	require.NoError(t, env.Configure(map[string]any{"attack": 0.1, "sustain": 0.5}))
	require.NoError(t, env.Start())

	// Rising edge triggers.
	gate.Set(1)
	require.NoError(t, env.Recompute())
	assert.Equal(t, StageAttack, env.Stage())

	// A held-high gate does not retrigger: the attack keeps its origin.
	clock.Advance(50 * time.Millisecond)
	require.NoError(t, env.Recompute())
	assert.InDelta(t, 0.5, env.Level(), 1e-9)

	// Falling edge releases.
	gate.Set(0)
	require.NoError(t, env.Recompute())
	assert.Equal(t, StageRelease, env.Stage())
}

func TestEnvelopeGateReconnectRetriggers(t *testing.T) {
	clock := newManualClock()
	gate := gateRef(1)
	env := NewEnvelope("adsr", WithClock(clock))
	env.Bind(patchResolver{"adsr.gate_in": gate})
	require.NoError(t, env.Start())
	require.NoError(t, env.Recompute())
	assert.Equal(t, StageAttack, env.Stage())

	// Unpatch the gate while it is still high and let the note die out.
	env.Bind(patchResolver{})
	require.NoError(t, env.Release())
	clock.Advance(2 * time.Second)
	require.NoError(t, env.Recompute())
	assert.Equal(t, StageIdle, env.Stage())

	// Re-patching the never-dropped gate is a fresh rising edge.
	env.Bind(patchResolver{"adsr.gate_in": gate})
	require.NoError(t, env.Recompute())
	assert.Equal(t, StageAttack, env.Stage())
}

func TestEnvelopeRecomputeRefreshesTiming(t *testing.T) {
	env, clock := newTestEnvelope(t)
	require.NoError(t, env.Trigger())

	clock.Advance(400 * time.Millisecond) // sustain
	require.NoError(t, env.SetParameter("sustain", 0.8))
	require.NoError(t, env.Recompute())
	assert.InDelta(t, 0.8, env.Level(), 1e-9)
}

func TestEnvelopeOutputScalarTracksLevel(t *testing.T) {
	env, clock := newTestEnvelope(t)
	out, err := env.OutputRef("cv_out")
	require.NoError(t, err)

	require.NoError(t, env.Trigger())
	clock.Advance(50 * time.Millisecond)
	require.NoError(t, env.Recompute())
	assert.InDelta(t, 0.5, out.Value(), 1e-9)

	// The published source follows the clock between recomputations.
	clock.Advance(50 * time.Millisecond)
	assert.InDelta(t, 1.0, out.Sample(), 1e-9)
}

func TestEnvelopeStopResetsToIdle(t *testing.T) {
	env, clock := newTestEnvelope(t)
	require.NoError(t, env.Trigger())
	clock.Advance(50 * time.Millisecond)

	require.NoError(t, env.Stop())
	assert.Equal(t, StageIdle, env.Stage())
	assert.Zero(t, env.Level())

	out, err := env.OutputRef("cv_out")
	require.NoError(t, err)
	assert.Nil(t, out.Source())
	assert.Zero(t, out.Sample())
}
