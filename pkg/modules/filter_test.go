package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/patchbay/pkg/module"
)

func TestFilterRequiresStart(t *testing.T) {
	f := NewFilter("vcf")

	var stateErr *module.StateError
	require.ErrorAs(t, f.Recompute(), &stateErr)
}

func TestFilterPassesDC(t *testing.T) {
	in := audioRef(1)
	f := NewFilter("vcf", WithSampleRate(44100))
	f.Bind(patchResolver{"vcf.audio_in": in})
	require.NoError(t, f.Start())
	require.NoError(t, f.Recompute())

	out, err := f.OutputRef("audio_out")
	require.NoError(t, err)

	// A low-pass settles onto a constant input.
	var v float64
	for i := 0; i < 2000; i++ {
		v = out.Sample()
	}
	assert.InDelta(t, 1.0, v, 0.05)
}

func TestFilterCutoffCVIsAdditive(t *testing.T) {
	cv := cvRef(0)
	f := NewFilter("vcf")
	f.Bind(patchResolver{"vcf.cutoff_cv": cv})
	require.NoError(t, f.Start())

	require.NoError(t, f.Recompute())
	assert.InDelta(t, 1000, f.EffectiveCutoff(), 1e-9)

	cv.Set(1)
	require.NoError(t, f.Recompute())
	assert.InDelta(t, 3000, f.EffectiveCutoff(), 1e-9) // 1000 + 1*2000

	require.NoError(t, f.SetParameter("cv_depth", 500))
	require.NoError(t, f.Recompute())
	assert.InDelta(t, 1500, f.EffectiveCutoff(), 1e-9)
}

func TestFilterClampsModulatedCutoff(t *testing.T) {
	cv := cvRef(100)
	f := NewFilter("vcf")
	f.Bind(patchResolver{"vcf.cutoff_cv": cv})
	require.NoError(t, f.Start())

	require.NoError(t, f.Recompute())
	assert.Equal(t, 20000.0, f.EffectiveCutoff())

	cv.Set(-100)
	require.NoError(t, f.Recompute())
	assert.Equal(t, 20.0, f.EffectiveCutoff())
}

func TestFilterRejectsOutOfRangeParameters(t *testing.T) {
	f := NewFilter("vcf")

	var paramErr *module.InvalidParameterError
	assert.ErrorAs(t, f.SetParameter("cutoff", 10), &paramErr)
	assert.ErrorAs(t, f.SetParameter("resonance", 0), &paramErr)
	assert.ErrorAs(t, f.SetParameter("resonance", 50), &paramErr)
}

func TestFilterStateResetsOnStart(t *testing.T) {
	in := audioRef(1)
	f := NewFilter("vcf")
	f.Bind(patchResolver{"vcf.audio_in": in})
	require.NoError(t, f.Start())
	require.NoError(t, f.Recompute())

	out, err := f.OutputRef("audio_out")
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		out.Sample()
	}

	require.NoError(t, f.Stop())
	require.NoError(t, f.Start())
	require.NoError(t, f.Recompute())

	// Filter memory is cleared: the first frame starts from silence again.
	first := out.Sample()
	assert.Less(t, first, 0.1)
}
