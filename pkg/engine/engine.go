package engine

import "github.com/aretw0/patchbay/pkg/signal"

// AudioEngine is the external rendering collaborator. Begin and End bracket
// all other activity. BindChannel hands the engine a handle, not a value
// snapshot: the engine reads through the handle on every frame, so a producer
// repointing the handle's contents is picked up automatically and the caller
// never re-binds after a recomputation.
//
// Implementations pull from bound Refs on their own render goroutine and must
// never call back into the routing core from that path.
type AudioEngine interface {
	// Begin acquires the underlying output device. Idempotent.
	Begin() error
	// End releases it and silences all channels. Idempotent.
	End() error

	// BindChannel routes a handle to a physical output channel, replacing any
	// prior binding on that channel.
	BindChannel(channel int, src *signal.Ref) error
	// UnbindChannel silences a channel. No-op when the channel is unbound.
	UnbindChannel(channel int)
}
