package modules

import (
	"sync/atomic"

	"github.com/aretw0/patchbay/pkg/module"
	"github.com/aretw0/patchbay/pkg/signal"
)

// CVMath operation names.
const (
	OpAdd      = "add"
	OpSubtract = "subtract"
	OpMultiply = "multiply"
	OpDivide   = "divide"
)

// divideEpsilon is the smallest denominator magnitude the divide operation
// will use. Smaller denominators are clamped to ±divideEpsilon, keeping the
// sign, so a modulated divisor crossing zero yields a large finite value
// instead of ±Inf or NaN.
const divideEpsilon = 1e-3

// Operations lists the supported operations in menu order.
func Operations() []string {
	return []string{OpAdd, OpSubtract, OpMultiply, OpDivide}
}

// CVMath combines two control signals arithmetically, then applies
// scale and offset to the result. Each operand falls back to its static
// parameter (a, b) when the input is unconnected, so the module doubles as an
// offset or scaler with a single live operand.
//
// Ports: a_in (cv in), b_in (cv in), cv_out (cv out).
type CVMath struct {
	module.Base

	out *signal.Ref
	cur atomic.Pointer[cvMathState]
}

// cvMathState is the snapshot the output source computes over.
type cvMathState struct {
	op     string
	a      module.Control
	b      module.Control
	scale  float64
	offset float64
}

func (s *cvMathState) compute() float64 {
	if s == nil {
		return 0
	}
	a, b := s.a.Value(), s.b.Value()
	var v float64
	switch s.op {
	case OpSubtract:
		v = a - b
	case OpMultiply:
		v = a * b
	case OpDivide:
		v = a / clampDenominator(b)
	default:
		v = a + b
	}
	return v*s.scale + s.offset
}

func clampDenominator(b float64) float64 {
	if b >= 0 && b < divideEpsilon {
		return divideEpsilon
	}
	if b < 0 && b > -divideEpsilon {
		return -divideEpsilon
	}
	return b
}

// NewCVMath builds a two-operand control arithmetic module.
func NewCVMath(name string, opts ...Option) *CVMath {
	o := buildOptions(opts)
	c := &CVMath{Base: module.NewBase(name)}
	c.SetClock(o.clock)

	c.DefineInput("a_in", signal.TypeCV)
	c.DefineInput("b_in", signal.TypeCV)
	c.out = c.DefineOutput("cv_out", signal.TypeCV)

	c.DefineParam("operation", module.ParamSpec{Default: OpAdd, Validate: module.OneOf(Operations()...)})
	c.DefineParam("a", module.ParamSpec{Default: 0.0, Validate: module.ClampFloat(-10000, 10000)})
	c.DefineParam("b", module.ParamSpec{Default: 0.0, Validate: module.ClampFloat(-10000, 10000)})
	c.DefineParam("scale", module.ParamSpec{Default: 1.0, Validate: module.ClampFloat(-10000, 10000)})
	c.DefineParam("offset", module.ParamSpec{Default: 0.0, Validate: module.ClampFloat(-10000, 10000)})

	c.OnStart = func() error {
		c.cur.Store(&cvMathState{op: OpAdd, scale: 1})
		c.out.SetSource(signal.SourceFunc(func() float64 {
			return c.cur.Load().compute()
		}))
		return nil
	}
	c.OnStop = func() error {
		c.out.SetSource(nil)
		c.out.Set(0)
		return nil
	}
	return c
}

// Recompute implements module.Module: it re-resolves both operands and
// refreshes the output scalar.
func (c *CVMath) Recompute() error {
	if err := c.EnsureStarted("recompute"); err != nil {
		return err
	}

	state := &cvMathState{
		op:     c.StringParam("operation"),
		a:      module.Resolve(c.Resolve("a_in"), c.FloatParam("a")),
		b:      module.Resolve(c.Resolve("b_in"), c.FloatParam("b")),
		scale:  c.FloatParam("scale"),
		offset: c.FloatParam("offset"),
	}
	c.cur.Store(state)
	c.out.Set(state.compute())
	return nil
}

// Value reports the current result.
func (c *CVMath) Value() float64 { return c.out.Value() }
