package main

import (
	"context"
	"fmt"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Review submitted payments",
	}
	cmd.AddCommand(
		newReviewCmd("approve", "Complete a transaction and settle its obligations",
			func(ctx context.Context, id uuid.UUID, notes string) (*dues.Transaction, error) {
				return a.reconciler.Approve(ctx, id, notes)
			}),
		newReviewCmd("reject", "Reject a transaction and release its obligations",
			func(ctx context.Context, id uuid.UUID, notes string) (*dues.Transaction, error) {
				return a.reconciler.Reject(ctx, id, notes)
			}),
	)
	return cmd
}

type reviewFunc func(ctx context.Context, id uuid.UUID, notes string) (*dues.Transaction, error)

func newReviewCmd(use, short string, apply reviewFunc) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   use + " <transaction-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("transaction id must be a valid UUID")
			}
			tx, err := apply(cmd.Context(), id, notes)
			if err != nil {
				return err
			}
			return printJSON(cmd, tx)
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Review notes stored on the transaction")
	return cmd
}
