package router_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/patchbay/internal/router"
	"github.com/aretw0/patchbay/pkg/signal"
)

func TestManager_Reconcile_Idempotent(t *testing.T) {
	m := router.New(newFakeEngine(), nil)
	require.NoError(t, m.Register(newFakeModule("a")))
	require.NoError(t, m.Register(newFakeModule("b")))
	require.NoError(t, m.Register(newFakeModule("c")))
	require.NoError(t, m.Connect("a", "cv_out", "b", "cv_in", signal.TypeCV))
	require.NoError(t, m.Connect("b", "cv_out", "c", "cv_in", signal.TypeCV))

	require.NoError(t, m.Reconcile())
	first := m.Bindings()
	require.NoError(t, m.Reconcile())
	second := m.Bindings()

	require.Len(t, first, 2)
	assert.Equal(t, len(first), len(second))
	for dst, ref := range first {
		assert.Same(t, ref, second[dst], "binding for %s changed across idle reconciles", dst)
	}
	assert.Equal(t, int64(2), m.Reconciles())
}

func TestManager_Reconcile_RepushesSinks(t *testing.T) {
	eng := newFakeEngine()
	m := router.New(eng, nil)
	src := newFakeModule("src")
	require.NoError(t, m.Register(src))
	require.NoError(t, m.RouteToOutput("src", "audio_out", 1))

	before := eng.binds
	require.NoError(t, m.Reconcile())
	assert.Equal(t, before+1, eng.binds, "reconcile re-pushes the sink binding")
	ref, _ := src.OutputRef("audio_out")
	assert.Same(t, ref, eng.bindings[1])
}

func TestManager_Reconcile_AfterStructuralChange(t *testing.T) {
	m := router.New(newFakeEngine(), nil)
	a := newFakeModule("a")
	b := newFakeModule("b")
	dst := newFakeModule("dst")
	for _, mod := range []*fakeModule{a, b, dst} {
		require.NoError(t, m.Register(mod))
	}

	require.NoError(t, m.Connect("a", "cv_out", "dst", "cv_in", signal.TypeCV))
	require.NoError(t, m.Reconcile())

	require.NoError(t, m.Connect("b", "cv_out", "dst", "cv_in", signal.TypeCV))
	require.NoError(t, m.Reconcile())

	want, _ := b.OutputRef("cv_out")
	got := m.Bindings()[signal.PortRef{Module: "dst", Port: "cv_in"}]
	assert.Same(t, want, got, "binding re-resolves to the replacing edge's source")
}
