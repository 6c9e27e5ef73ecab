package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List open drafts with at least one pending item, riskiest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		drafts, err := core.ListPending(context.Background())
		if err != nil {
			fail(err)
			return nil
		}

		if jsonOutput {
			outputJSON(drafts)
			return nil
		}
		for _, d := range drafts {
			fmt.Printf("%s\tpatient=%s\titems=%d\n", d.DraftID, d.PatientLocalID, len(d.Items))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}
