package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinistack/vetcore/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the store and its schema, scaffolding vetcore.yaml if absent",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		wroteConfig := false
		cfg, err := config.Load(configPath)
		if err != nil {
			fail(err)
			return nil
		}
		if err := config.WriteFile(configPath, cfg); err == nil {
			wroteConfig = true
		} else if !errors.Is(err, os.ErrExist) {
			fail(fmt.Errorf("write %s: %w", configPath, err))
			return nil
		}

		if jsonOutput {
			outputJSON(map[string]any{"status": "initialized", "wrote_config": wroteConfig})
			return nil
		}
		fmt.Println("store initialized")
		if wroteConfig {
			fmt.Printf("wrote default config to %s\n", configPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
