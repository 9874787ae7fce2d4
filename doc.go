/*
Package patchbay is a signal-routing core for a modular software synthesizer:
a registry of modules (oscillators, filters, amplifiers, envelopes, mixers)
and the typed connections between their ports, with rendering delegated to an
external audio engine.

It implements a "stable handles with live resolution" architecture: every
output port owns one handle for its whole life, producers repoint the handle's
contents at each recomputation, and consumers (including the audio engine)
read through the handle on every use. Repatching therefore never invalidates a
running render path, and reconciliation is an idempotent safety net rather
than a load-bearing step.

# Concept

A patch is a directed graph. Output ports fan out freely; an input port
accepts at most one connection, and connecting again replaces the old cable,
exactly like physically re-plugging a patch cable. Connections are typed
(audio, cv, gate, trigger) and validated at connect time, so a control signal
can never be routed onto a speaker.

Modules are passive: nothing recomputes implicitly. The host drives the patch
from a single thread, calling Recompute after parameter or topology changes,
while the engine pulls audio frames concurrently through bound handles.

# Key Features

  - Stable signal references: repatching upstream never breaks consumers.
  - Typed port system validated at connection time.
  - Passive modules with explicit lifecycle (Start, Stop, Recompute).
  - Engine-agnostic rendering: device playback via oto or headless stepping.

# Usage

	package main

	import (
		"log"

		"github.com/aretw0/patchbay"
		"github.com/aretw0/patchbay/pkg/adapters/speaker"
		"github.com/aretw0/patchbay/pkg/modules"
		"github.com/aretw0/patchbay/pkg/signal"
	)

	func main() {
		patch := patchbay.New(patchbay.WithEngine(speaker.New()))

		vco := modules.NewOscillator("vco")
		vcf := modules.NewFilter("vcf")
		if err := patch.Register(vco, vcf); err != nil {
			log.Fatal(err)
		}

		if err := patch.Connect("vco", "audio_out", "vcf", "audio_in", signal.TypeAudio); err != nil {
			log.Fatal(err)
		}

		if err := patch.Open(); err != nil {
			log.Fatal(err)
		}
		defer patch.Close()

		if err := patch.StartAll(); err != nil {
			log.Fatal(err)
		}
		if err := patch.RecomputeAll(); err != nil {
			log.Fatal(err)
		}
		if err := patch.RouteToOutput("vcf", "audio_out", 0); err != nil {
			log.Fatal(err)
		}
		select {} // keep rendering
	}
*/
package patchbay
