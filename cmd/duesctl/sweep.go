package main

import (
	"fmt"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/spf13/cobra"
)

func newSweepCmd(a *app) *cobra.Command {
	var unit, resident string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Promote past-due obligations to overdue",
		Long: `Promote pending obligations whose due date has passed to overdue.

Without flags every unit is swept. --unit and --resident narrow the sweep.`,
		Example: `  duesctl sweep
  duesctl sweep --unit 5f0c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var scope dues.SweepScope
			var err error
			if scope.UnitID, err = parseOptionalID("unit", unit); err != nil {
				return err
			}
			if scope.ResidentID, err = parseOptionalID("resident", resident); err != nil {
				return err
			}
			n := a.sweeper.Sweep(cmd.Context(), scope)
			fmt.Fprintf(cmd.OutOrStdout(), "%d obligations marked overdue\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "Only sweep this unit")
	cmd.Flags().StringVar(&resident, "resident", "", "Only sweep units of this resident")
	return cmd
}
