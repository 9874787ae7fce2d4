package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/patchbay"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of patchbay",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("patchbay version %s\n", patchbay.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
