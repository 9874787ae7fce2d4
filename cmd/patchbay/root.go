package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/patchbay/internal/logging"
	"github.com/aretw0/patchbay/internal/presentation/tui"
)

var rootCmd = &cobra.Command{
	Use:   "patchbay",
	Short: "Patchbay is a signal-routing engine for a modular synthesizer",
	Long:  `Patchbay registers synthesizer modules, validates typed connections between their ports, and routes audio to an output device or a headless renderer.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if term.IsTerminal(int(os.Stdout.Fd())) && cmd.Name() != "graph" {
			tui.PrintBanner()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

// newLogger builds the application logger from the persistent flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.New(logging.ParseLevel(level))
}
