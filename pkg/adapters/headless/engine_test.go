package headless

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/patchbay/pkg/signal"
)

func TestEngineRejectsBadBindings(t *testing.T) {
	e := New(2)

	assert.Error(t, e.BindChannel(-1, signal.NewRef(signal.TypeAudio)))
	assert.Error(t, e.BindChannel(2, signal.NewRef(signal.TypeAudio)))
	assert.Error(t, e.BindChannel(0, nil))
}

func TestEngineStepRequiresBegin(t *testing.T) {
	e := New(0)
	assert.Error(t, e.Step(1))

	require.NoError(t, e.Begin())
	assert.NoError(t, e.Step(1))
}

func TestEnginePullsBoundHandles(t *testing.T) {
	ref := signal.NewRef(signal.TypeAudio)
	ref.Set(0.5)

	e := New(2)
	require.NoError(t, e.Begin())
	require.NoError(t, e.BindChannel(0, ref))
	require.NoError(t, e.Step(3))

	assert.InDelta(t, 0.5, e.Last(0), 1e-9)
	assert.Zero(t, e.Last(1))
	assert.EqualValues(t, 3, e.Frames())
}

func TestEngineFollowsHandleContents(t *testing.T) {
	ref := signal.NewRef(signal.TypeAudio)
	e := New(2)
	require.NoError(t, e.Begin())
	require.NoError(t, e.BindChannel(0, ref))

	ref.Set(0.25)
	require.NoError(t, e.Step(1))
	assert.InDelta(t, 0.25, e.Last(0), 1e-9)

	// Repointing the contents, not re-binding, is how producers publish.
	ref.Set(-0.75)
	require.NoError(t, e.Step(1))
	assert.InDelta(t, -0.75, e.Last(0), 1e-9)
}

func TestEngineUnbindSilences(t *testing.T) {
	ref := signal.NewRef(signal.TypeAudio)
	ref.Set(1)

	e := New(2)
	require.NoError(t, e.Begin())
	require.NoError(t, e.BindChannel(1, ref))
	require.NoError(t, e.Step(1))
	require.True(t, e.Bound(1))

	e.UnbindChannel(1)
	assert.False(t, e.Bound(1))
	assert.Zero(t, e.Last(1))
}

func TestEngineEndSilencesButKeepsBindings(t *testing.T) {
	ref := signal.NewRef(signal.TypeAudio)
	ref.Set(1)

	e := New(2)
	require.NoError(t, e.Begin())
	require.NoError(t, e.BindChannel(0, ref))
	require.NoError(t, e.Step(1))

	require.NoError(t, e.End())
	assert.Zero(t, e.Last(0))
	assert.True(t, e.Bound(0))

	require.NoError(t, e.Begin())
	require.NoError(t, e.Step(1))
	assert.InDelta(t, 1.0, e.Last(0), 1e-9)
}
