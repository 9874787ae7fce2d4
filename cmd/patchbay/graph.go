package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/patchbay/internal/logging"
	"github.com/aretw0/patchbay/pkg/adapters/headless"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the demo patch visualization",
	Long:  `Builds the demo patch and outputs a Mermaid diagram (graph LR) representing its routing.`,
	Run: func(cmd *cobra.Command, args []string) {
		patch, err := buildDemoPatch(headless.New(2), logging.NewNop())
		if err != nil {
			fmt.Printf("Error building demo patch: %v\n", err)
			os.Exit(1)
		}
		defer patch.Close()

		fmt.Print(patch.Graph())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
