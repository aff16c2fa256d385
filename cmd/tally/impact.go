package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mossburn/tally/internal/cli"
	"github.com/mossburn/tally/internal/ledger"
	"github.com/mossburn/tally/internal/model"
)

func impactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Show the ethical impact summary for analyzed transactions",
		Long: `Aggregate the analyzed transactions of the most recent batch into an
ethical impact summary: positive and negative impact by category, effective
debt after applied credit, and the current credit balance.`,
		RunE: runImpact,
	}

	cmd.Flags().Bool("by-category", false, "Show per-category breakdowns")

	return cmd
}

func runImpact(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID := currentUserID()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	txs, err := loadLatestTransactions(ctx, store, userID)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println(cli.FormatInfo("No transactions found. Run analyze or import first."))
		return nil
	}

	led := ledger.New(store)
	view, err := led.GetImpact(ctx, userID, txs)
	if err != nil {
		return fmt.Errorf("failed to compute impact: %w", err)
	}

	fmt.Println(renderImpactSummary(view))

	byCategory, _ := cmd.Flags().GetBool("by-category")
	if byCategory {
		fmt.Println(renderCategoryBreakdown("Positive impact by category", view.PositiveByCategory, cli.PositiveStyle))
		fmt.Println(renderCategoryBreakdown("Negative impact by category", view.NegativeByCategory, cli.NegativeStyle))
	}

	return nil
}

func renderImpactSummary(view model.ImpactAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total spent:       $%.2f\n", view.TotalSpent)
	fmt.Fprintf(&b, "Positive impact:   %s\n", cli.PositiveStyle.Render(fmt.Sprintf("$%.2f", view.PositiveImpact)))
	fmt.Fprintf(&b, "Negative impact:   %s\n", cli.NegativeStyle.Render(fmt.Sprintf("$%.2f", view.NegativeImpact)))
	fmt.Fprintf(&b, "Impact debt:       %.1f%% of spend\n", view.DebtPercentage)
	fmt.Fprintf(&b, "Applied credit:    $%.2f\n", view.AppliedCredit)
	fmt.Fprintf(&b, "Effective debt:    $%.2f\n", view.EffectiveDebt)
	fmt.Fprintf(&b, "Available credit:  $%.2f", view.AvailableCredit)

	return cli.RenderBox(cli.ScaleIcon+" Ethical impact", b.String())
}

func renderCategoryBreakdown(title string, byCategory map[string]float64, style interface{ Render(...string) string }) string {
	if len(byCategory) == 0 {
		return cli.SubtleStyle.Render(title + ": none")
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		return byCategory[categories[i]] > byCategory[categories[j]]
	})

	var b strings.Builder
	b.WriteString(cli.BoldStyle.Render(title) + "\n")
	for _, category := range categories {
		fmt.Fprintf(&b, "  %-28s %s\n", category, style.Render(fmt.Sprintf("$%.2f", byCategory[category])))
	}

	return b.String()
}
