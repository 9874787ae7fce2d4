/*
Package signal defines the domain types of the patchbay core: signal types,
ports, connections, the stable Ref handle that producers publish and consumers
resolve, and the structural error taxonomy.

The central idea is indirection with stable identity. A module's output port owns
exactly one *Ref for the lifetime of the port. The module may repoint the Ref's
contents (a scalar value, an audio-rate Source, or both) on every recomputation;
the Ref pointer itself never changes. Consumers hold the Ref, never the contents,
so a producer regenerating its output does not silently strand anything
downstream.
*/
package signal
