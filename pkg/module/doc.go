/*
Package module defines the contract every patchbay module variant implements,
plus the shared machinery (Base) the concrete variants embed.

A module owns its ports, parameters and lifecycle, and recomputes its outputs on
demand. Recomputation is entirely caller-driven: nothing in this package tracks
dirtiness or schedules work. The caller recomputes upstream modules before
downstream ones after any connection or parameter change.
*/
package module
