// Command vetcore is a development/support CLI over the embeddable
// vetcore core: it exercises every host-facing operation standalone so a
// real embedding application is not needed to drive or triage the core.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	storePath  string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "vetcore",
	Short: "vetcore - offline veterinary point-of-care core",
	Long:  `Resolve drug mentions, stage and commit reviewed encounters, and sync a local Merkle log against a peer.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "store path (overrides vetcore.yaml store_path)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "vetcore.yaml", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
