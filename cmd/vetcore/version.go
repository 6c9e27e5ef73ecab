package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the current version of vetcore (overridden by ldflags at
// build time).
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			outputJSON(map[string]string{"version": Version})
			return
		}
		fmt.Printf("vetcore version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
