package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/patchbay"
	"github.com/aretw0/patchbay/pkg/adapters/headless"
	"github.com/aretw0/patchbay/pkg/adapters/speaker"
	"github.com/aretw0/patchbay/pkg/engine"
	"github.com/aretw0/patchbay/pkg/modules"
	"github.com/aretw0/patchbay/pkg/signal"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Play the built-in demo patch",
	Long:  `Builds a subtractive voice (oscillator, filter, amplifier) with an LFO sweeping the filter cutoff and plays it on the default output device, or renders it headless.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)
		seconds, _ := cmd.Flags().GetFloat64("seconds")
		noDevice, _ := cmd.Flags().GetBool("headless")

		var eng engine.AudioEngine
		var hl *headless.Engine
		if noDevice {
			hl = headless.New(2)
			eng = hl
		} else {
			eng = speaker.New()
		}

		patch, err := buildDemoPatch(eng, logger)
		if err != nil {
			fmt.Printf("Error building demo patch: %v\n", err)
			os.Exit(1)
		}
		defer patch.Close()

		if hl != nil {
			runHeadless(patch, hl, seconds)
			return
		}
		runLive(patch, seconds)
	},
}

// buildDemoPatch wires vco -> vcf -> vca -> channels 0 and 1, with the LFO
// sweeping the filter cutoff.
func buildDemoPatch(eng engine.AudioEngine, logger *slog.Logger) (*patchbay.Patch, error) {
	patch := patchbay.New(patchbay.WithEngine(eng), patchbay.WithLogger(logger))

	vco := modules.NewOscillator("vco")
	vcf := modules.NewFilter("vcf")
	vca := modules.NewAmplifier("vca")
	lfo := modules.NewLFO("lfo")
	if err := patch.Register(vco, vcf, vca, lfo); err != nil {
		return nil, err
	}

	if err := patch.Connect("vco", "audio_out", "vcf", "audio_in", signal.TypeAudio); err != nil {
		return nil, err
	}
	if err := patch.Connect("vcf", "audio_out", "vca", "audio_in", signal.TypeAudio); err != nil {
		return nil, err
	}
	if err := patch.Connect("lfo", "cv_out", "vcf", "cutoff_cv", signal.TypeCV); err != nil {
		return nil, err
	}

	if err := vco.Configure(map[string]any{"waveform": "saw", "freq": 110.0}); err != nil {
		return nil, err
	}
	if err := vcf.Configure(map[string]any{"cutoff": 600.0, "resonance": 4.0, "cv_depth": 500.0}); err != nil {
		return nil, err
	}
	if err := lfo.Configure(map[string]any{"freq": 0.5, "amp": 1.0}); err != nil {
		return nil, err
	}

	if err := patch.Open(); err != nil {
		return nil, err
	}
	if err := patch.StartAll(); err != nil {
		return nil, err
	}
	if err := patch.RecomputeAll(); err != nil {
		return nil, err
	}
	if err := patch.RouteToOutput("vca", "audio_out", 0); err != nil {
		return nil, err
	}
	if err := patch.RouteToOutput("vca", "audio_out", 1); err != nil {
		return nil, err
	}
	return patch, nil
}

// runLive plays on the device, recomputing at control rate so the LFO sweep
// lands on the filter.
func runLive(patch *patchbay.Patch, seconds float64) {
	fmt.Printf("Playing demo patch for %.1fs...\n", seconds)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(time.Duration(seconds * float64(time.Second)))
	for {
		select {
		case <-ticker.C:
			if err := patch.RecomputeAll(); err != nil {
				fmt.Printf("Recompute error: %v\n", err)
				return
			}
		case <-deadline:
			fmt.Println("Done.")
			return
		}
	}
}

// runHeadless renders the same patch frame by frame and prints a coarse
// envelope of the output.
func runHeadless(patch *patchbay.Patch, eng *headless.Engine, seconds float64) {
	frames := int(seconds * modules.DefaultSampleRate)
	const block = 4410 // 100ms
	for done := 0; done < frames; done += block {
		if err := patch.RecomputeAll(); err != nil {
			fmt.Printf("Recompute error: %v\n", err)
			return
		}
		if err := eng.Step(block); err != nil {
			fmt.Printf("Render error: %v\n", err)
			return
		}
		fmt.Printf("t=%5.2fs  out=%+.4f\n", float64(done+block)/modules.DefaultSampleRate, eng.Last(0))
	}
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().Float64P("seconds", "s", 5, "How long to play")
	demoCmd.Flags().Bool("headless", false, "Render without a sound device")
}
