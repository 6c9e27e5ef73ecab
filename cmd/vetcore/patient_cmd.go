package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clinistack/vetcore"
)

var patientCmd = &cobra.Command{
	Use:   "patient",
	Short: "Manage patients",
}

var (
	patientAddLocalID string
	patientAddName    string
	patientAddSpecies string
	patientAddWeight  string
)

var patientAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new patient",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		p := vetcore.Patient{
			LocalID: patientAddLocalID,
			Name:    patientAddName,
			Species: patientAddSpecies,
		}
		if patientAddWeight != "" {
			w, err := strconv.ParseFloat(patientAddWeight, 64)
			if err != nil {
				fail(fmt.Errorf("invalid --weight-kg: %w", err))
				return nil
			}
			p.WeightKg = &w
		}

		if err := core.CreatePatient(context.Background(), p); err != nil {
			fail(err)
			return nil
		}

		if jsonOutput {
			outputJSON(p)
			return nil
		}
		fmt.Printf("added patient %s\n", p.LocalID)
		return nil
	},
}

func init() {
	patientAddCmd.Flags().StringVar(&patientAddLocalID, "local-id", "", "local patient id (required)")
	patientAddCmd.Flags().StringVar(&patientAddName, "name", "", "patient name")
	patientAddCmd.Flags().StringVar(&patientAddSpecies, "species", "", "species")
	patientAddCmd.Flags().StringVar(&patientAddWeight, "weight-kg", "", "weight in kg")
	_ = patientAddCmd.MarkFlagRequired("local-id")

	patientCmd.AddCommand(patientAddCmd)
	rootCmd.AddCommand(patientCmd)
}
