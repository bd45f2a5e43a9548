package main

import (
	"fmt"
	"time"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newChargeCmd(a *app) *cobra.Command {
	var (
		unit   string
		month  int
		year   int
		amount string
	)
	cmd := &cobra.Command{
		Use:   "ensure-charge",
		Short: "Create a unit's periodic charge unless it already exists",
		Long: `Create the periodic charge of a unit for one month. The amount defaults to
the unit's fee schedule. An existing charge is printed unchanged.`,
		Example: `  duesctl ensure-charge --unit 5f0c... --month 7 --year 2024
  duesctl ensure-charge --unit 5f0c... --month 7 --year 2024 --amount 650`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			unitID, err := uuid.Parse(unit)
			if err != nil {
				return fmt.Errorf("--unit must be a valid UUID")
			}
			now := time.Now().In(a.loc)
			if month == 0 {
				month = int(now.Month())
			}
			if year == 0 {
				year = now.Year()
			}
			period, err := valueobject.NewPeriod(month, year)
			if err != nil {
				return err
			}
			in := appdues.EnsureChargeInput{UnitID: unitID, Period: period}
			if amount != "" {
				d, err := decimal.NewFromString(amount)
				if err != nil {
					return fmt.Errorf("--amount must be a decimal number")
				}
				in.Amount = &d
			}

			res, err := a.obligations.EnsureCharge(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "Unit id (required)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12, defaults to the current month")
	cmd.Flags().IntVar(&year, "year", 0, "Year, defaults to the current year")
	cmd.Flags().StringVar(&amount, "amount", "", "Override the fee schedule amount")
	_ = cmd.MarkFlagRequired("unit")
	return cmd
}
