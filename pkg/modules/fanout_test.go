package modules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/patchbay/pkg/signal"
)

func TestFanoutClampsBranchCount(t *testing.T) {
	assert.Equal(t, 4, NewFanout("mult", signal.TypeCV, 0).Branches())
	assert.Equal(t, 2, NewFanout("mult", signal.TypeCV, 1).Branches())
	assert.Equal(t, 8, NewFanout("mult", signal.TypeCV, 99).Branches())
	assert.Equal(t, 3, NewFanout("mult", signal.TypeCV, 3).Branches())
}

func TestFanoutPortsShareTheInputType(t *testing.T) {
	f := NewFanout("mult", signal.TypeAudio, 3)

	assert.Len(t, f.Inputs(), 1)
	assert.Equal(t, signal.TypeAudio, f.Inputs()[0].Type)
	for _, p := range f.Outputs() {
		assert.Equal(t, signal.TypeAudio, p.Type)
	}
}

func TestFanoutMirrorsInputOnAllBranches(t *testing.T) {
	in := cvRef(2.5)
	f := NewFanout("mult", signal.TypeCV, 3)
	f.Bind(patchResolver{"mult.in": in})
	require.NoError(t, f.Start())
	require.NoError(t, f.Recompute())

	for i := 1; i <= 3; i++ {
		out, err := f.OutputRef(fmt.Sprintf("out_%d", i))
		require.NoError(t, err)
		assert.InDelta(t, 2.5, out.Value(), 1e-9, "out_%d scalar", i)
		assert.InDelta(t, 2.5, out.Sample(), 1e-9, "out_%d pull", i)
	}
}

func TestFanoutFollowsInputLive(t *testing.T) {
	in := cvRef(1)
	f := NewFanout("mult", signal.TypeCV, 2)
	f.Bind(patchResolver{"mult.in": in})
	require.NoError(t, f.Start())
	require.NoError(t, f.Recompute())

	out, err := f.OutputRef("out_1")
	require.NoError(t, err)

	// The pull path tracks the upstream handle without a recomputation.
	in.Set(4)
	assert.InDelta(t, 4.0, out.Sample(), 1e-9)
}

func TestFanoutUnconnectedIsSilent(t *testing.T) {
	f := NewFanout("mult", signal.TypeCV, 2)
	require.NoError(t, f.Start())
	require.NoError(t, f.Recompute())

	out, err := f.OutputRef("out_2")
	require.NoError(t, err)
	assert.Zero(t, out.Sample())
}

func TestFanoutHandlesStayStableAcrossRepatch(t *testing.T) {
	a, b := cvRef(1), cvRef(2)
	patch := patchResolver{"mult.in": a}
	f := NewFanout("mult", signal.TypeCV, 2)
	f.Bind(patch)
	require.NoError(t, f.Start())
	require.NoError(t, f.Recompute())

	before, err := f.OutputRef("out_1")
	require.NoError(t, err)

	patch["mult.in"] = b
	require.NoError(t, f.Recompute())

	after, err := f.OutputRef("out_1")
	require.NoError(t, err)
	assert.Same(t, before, after)
	assert.InDelta(t, 2.0, after.Sample(), 1e-9)
}
