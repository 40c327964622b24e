package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

func newEligibilityCmd() *cobra.Command {
	var sales float64
	cmd := &cobra.Command{
		Use:   "eligibility",
		Short: "Classify 30-day sales against the Key thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sales < 0 {
				return fmt.Errorf("%w: --sales must be >= 0", domain.ErrValidation)
			}
			return printJSON(cmd.OutOrStdout(), domain.EvaluateEligibility(sales))
		},
	}
	cmd.Flags().Float64Var(&sales, "sales", 0, "Rolling 30-day sales")
	return cmd
}

func newBudgetCmd() *cobra.Command {
	var (
		weekIndex  int
		sales      float64
		overflowIn float64
	)
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Compute one campaign week's budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if weekIndex < 0 || sales < 0 || overflowIn < 0 {
				return fmt.Errorf("%w: --week-index, --sales and --overflow-in must be >= 0", domain.ErrValidation)
			}
			res, err := domain.CalculateCampaignBudget(weekIndex, sales, overflowIn)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&weekIndex, "week-index", 0, "Weeks since the campaign was created")
	cmd.Flags().Float64Var(&sales, "sales", 0, "Campaign sales for the week")
	cmd.Flags().Float64Var(&overflowIn, "overflow-in", 0, "Overflow received from the parent campaign")
	return cmd
}
