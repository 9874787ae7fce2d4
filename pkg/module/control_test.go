package module_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

func TestControl_Constant(t *testing.T) {
	c := module.Constant(0.8)
	assert.False(t, c.IsLive())
	assert.Equal(t, 0.8, c.Value())
	assert.Nil(t, c.Ref())
}

func TestControl_LiveWinsOverConstant(t *testing.T) {
	ref := signal.NewRef(signal.TypeCV)
	ref.Set(2.0)

	c := module.Resolve(ref, 0.8)
	assert.True(t, c.IsLive())
	assert.Equal(t, 2.0, c.Value(), "bound control reference wins over static value")

	ref.Set(-1.0)
	assert.Equal(t, -1.0, c.Value(), "control tracks the live reference")
}

func TestControl_DefaultRefFallsBack(t *testing.T) {
	c := module.Resolve(signal.DefaultRef(signal.TypeCV), 0.8)
	assert.False(t, c.IsLive())
	assert.Equal(t, 0.8, c.Value(), "unconnected input degrades to the static value")

	assert.False(t, module.Live(nil).IsLive())
}
