package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export committed encounters for billing or compliance",
}

var exportBillingCSVFormat bool

var exportBillingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Export every committed encounter's line items",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		ctx := context.Background()
		if exportBillingCSVFormat {
			csv, err := core.ExportBillingCSV(ctx)
			if err != nil {
				fail(err)
				return nil
			}
			os.Stdout.Write(csv)
			return nil
		}

		data, err := core.ExportBillingJSON(ctx)
		if err != nil {
			fail(err)
			return nil
		}
		fmt.Println(string(data))
		return nil
	},
}

var exportComplianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Export the full ordered encounter list with inclusion proofs",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		report, err := core.ExportCompliance(context.Background(), time.Now())
		if err != nil {
			fail(err)
			return nil
		}
		outputJSON(report)
		return nil
	},
}

func init() {
	exportBillingCmd.Flags().BoolVar(&exportBillingCSVFormat, "csv", false, "emit CSV instead of JSON")

	exportCmd.AddCommand(exportBillingCmd, exportComplianceCmd)
	rootCmd.AddCommand(exportCmd)
}
