package signal

import (
	"math"
	"sync/atomic"
)

// Source produces sample values at the render engine's cadence. Each call
// advances one frame. Implementations own their DSP state (phase accumulators,
// filter memory) and read control parameters from Refs, so parameter changes
// land on the next frame without reallocation.
//
// Sample is called from the engine's render goroutine. Implementations must not
// call back into the routing core.
type Source interface {
	Sample() float64
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func() float64

// Sample calls f.
func (f SourceFunc) Sample() float64 { return f() }

// Ref is a stable-identity handle to a producer's current output. The producing
// output port owns the Ref exclusively and may replace its contents at any
// recomputation; consumers hold the Ref pointer and read through it, refreshed
// by lookup, never caching the contents across a recomputation boundary.
//
// Reads (Value, Source) are safe concurrently with producer writes: the render
// engine pulls from bound Refs at its own cadence while the driving thread
// recomputes. Everything else in the core is single-threaded by contract.
type Ref struct {
	typ Type

	// Scalar contents, as math.Float64bits. Control-rate consumers read this.
	bits atomic.Uint64

	// Audio-rate contents. Nil until the producer publishes a generator.
	src atomic.Pointer[Source]
}

// NewRef creates a handle carrying the type's default scalar and no source.
func NewRef(t Type) *Ref {
	r := &Ref{typ: t}
	r.bits.Store(math.Float64bits(t.Default()))
	return r
}

// Type returns the signal type this handle carries.
func (r *Ref) Type() Type { return r.typ }

// Value returns the current scalar contents.
func (r *Ref) Value() float64 {
	return math.Float64frombits(r.bits.Load())
}

// Set repoints the scalar contents. Producer side only.
func (r *Ref) Set(v float64) {
	r.bits.Store(math.Float64bits(v))
}

// Source returns the current sample generator, or nil if the producer has only
// published scalar contents.
func (r *Ref) Source() Source {
	if p := r.src.Load(); p != nil {
		return *p
	}
	return nil
}

// SetSource repoints the generator contents. Producer side only. Passing nil
// clears the generator, leaving only the scalar.
func (r *Ref) SetSource(s Source) {
	if s == nil {
		r.src.Store(nil)
		return
	}
	r.src.Store(&s)
}

// Sample pulls one frame: the generator when present, otherwise the scalar.
// This is the read the render engine performs per frame per bound channel.
func (r *Ref) Sample() float64 {
	if s := r.Source(); s != nil {
		return s.Sample()
	}
	return r.Value()
}

// defaultRefs are the immutable fallbacks handed to consumers whose input is
// unconnected or whose upstream has not produced yet. One per type, never
// written after init.
var defaultRefs = map[Type]*Ref{
	TypeAudio:   NewRef(TypeAudio),
	TypeCV:      NewRef(TypeCV),
	TypeGate:    NewRef(TypeGate),
	TypeTrigger: NewRef(TypeTrigger),
}

// DefaultRef returns the shared fallback handle for a type. Its scalar is the
// type's default and it carries no source.
func DefaultRef(t Type) *Ref {
	if r, ok := defaultRefs[t]; ok {
		return r
	}
	return NewRef(t)
}

// IsDefault reports whether r is one of the shared fallback handles, which is
// how a consumer can tell "unconnected" apart from "connected and currently at
// the default value".
func IsDefault(r *Ref) bool {
	if r == nil {
		return true
	}
	return r == defaultRefs[r.typ]
}
