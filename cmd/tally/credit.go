package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mossburn/tally/internal/cli"
	"github.com/mossburn/tally/internal/ledger"
)

func creditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Manage the ethical credit ledger",
	}

	cmd.AddCommand(creditApplyCmd())
	cmd.AddCommand(creditShowCmd())

	return cmd
}

func creditApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply available credit against impact debt",
		Long: `Apply earned ethical credit to offset impact debt. The applied amount is
capped at both the available credit balance and the outstanding effective
debt, so credit can never exceed either.`,
		RunE: runCreditApply,
	}

	cmd.Flags().Float64("amount", 0, "Credit amount to apply (required)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runCreditApply(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID := currentUserID()
	requested, _ := cmd.Flags().GetFloat64("amount")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	txs, err := loadLatestTransactions(ctx, store, userID)
	if err != nil {
		return err
	}

	led := ledger.New(store)
	applied, ok, err := led.ApplyCredit(ctx, userID, txs, requested)
	if err != nil {
		return fmt.Errorf("failed to apply credit: %w", err)
	}
	if !ok {
		fmt.Println(cli.FormatInfo("No credit applied: nothing available or no outstanding debt."))
		return nil
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Applied $%.2f of credit", applied)))
	if applied < requested {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Requested $%.2f; capped by available credit or outstanding debt.", requested)))
	}

	view, err := led.GetImpact(ctx, userID, txs)
	if err != nil {
		return fmt.Errorf("failed to compute impact: %w", err)
	}
	fmt.Println(renderImpactSummary(view))

	return nil
}

func creditShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current credit balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			userID := currentUserID()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			state, err := store.GetCreditState(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to load credit state: %w", err)
			}

			fmt.Printf("%s Available credit: $%.2f\n", cli.CreditIcon, state.AvailableCredit)
			fmt.Printf("   Applied credit:   $%.2f\n", state.AppliedCredit)
			if !state.LastAppliedAt.IsZero() {
				fmt.Printf("   Last applied:     $%.2f on %s\n",
					state.LastAppliedAmount,
					state.LastAppliedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}
