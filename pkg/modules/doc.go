/*
Package modules provides the concrete module variants: Oscillator, LFO, Filter,
Amplifier, Envelope, Fanout, Mixer and CVMath.

All variants embed module.Base and follow the caller-driven recomputation
protocol: Recompute re-resolves inputs through the routing layer, applies
parameters (live control references win over static values) and repoints the
contents of the output handles. Handles themselves stay stable, so downstream
consumers and terminal sinks keep observing current output without re-wiring.
*/
package modules
