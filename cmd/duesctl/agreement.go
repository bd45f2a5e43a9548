package main

import (
	"fmt"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newAgreementCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agreement",
		Short: "Manage payment agreements",
	}
	cmd.AddCommand(newAgreementBuildCmd(a))
	return cmd
}

func newAgreementBuildCmd(a *app) *cobra.Command {
	var (
		resident     string
		periods      int
		installments int
		start        string
		surcharge    string
		notes        string
	)
	cmd := &cobra.Command{
		Use:     "build",
		Short:   "Consolidate a resident's arrears into an installment plan",
		Example: `  duesctl agreement build --resident 9b1e... --periods 3 --installments 6 --start 2024-07-01`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			residentID, err := uuid.Parse(resident)
			if err != nil {
				return fmt.Errorf("--resident must be a valid UUID")
			}
			startDate, err := a.parseDate("start", start)
			if err != nil {
				return err
			}
			in := appdues.BuildAgreementInput{
				ResidentID:           residentID,
				PeriodsToConsolidate: periods,
				InstallmentCount:     installments,
				StartDate:            startDate,
				Notes:                notes,
			}
			if surcharge != "" {
				d, err := decimal.NewFromString(surcharge)
				if err != nil {
					return fmt.Errorf("--surcharge must be a decimal percentage")
				}
				in.SurchargePercent = &d
			}

			res, err := a.builder.Build(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&resident, "resident", "", "Resident id (required)")
	cmd.Flags().IntVar(&periods, "periods", 0, "Number of past periods to consolidate (required)")
	cmd.Flags().IntVar(&installments, "installments", 1, "Number of monthly installments")
	cmd.Flags().StringVar(&start, "start", "", "First installment due date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&surcharge, "surcharge", "", "Override the fee schedule surcharge percent")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes stored on the agreement")
	_ = cmd.MarkFlagRequired("resident")
	_ = cmd.MarkFlagRequired("periods")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}
