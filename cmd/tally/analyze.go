package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mossburn/tally/internal/bank/plaid"
	"github.com/mossburn/tally/internal/cli"
	"github.com/mossburn/tally/internal/engine"
	"github.com/mossburn/tally/internal/ledger"
	"github.com/mossburn/tally/internal/merge"
	"github.com/mossburn/tally/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze transactions for ethical impact",
		Long: `Fetch transactions, enrich them with per-merchant ethical practice
analysis, and update the impact ledger.

By default the most recently stored batch is analyzed. With --fetch, new
transactions are pulled from the linked bank account first and reconciled
against prior state before analysis.`,
		RunE: runAnalyze,
	}

	cmd.Flags().Bool("fetch", false, "Fetch new transactions from the bank before analyzing")
	cmd.Flags().String("from", "", "Start date for --fetch (YYYY-MM-DD, default 30 days ago)")
	cmd.Flags().String("to", "", "End date for --fetch (YYYY-MM-DD, default today)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
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

	fetch, _ := cmd.Flags().GetBool("fetch")
	if fetch {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		fetched, fetchErr := fetchBankTransactions(cmd, from, to)
		if fetchErr != nil {
			return fetchErr
		}
		// Prior analyzed state survives reconciliation with the fresh fetch.
		txs = merge.Transactions(txs, fetched)
	}

	if len(txs) == 0 {
		fmt.Println(cli.FormatInfo("No transactions to analyze. Run with --fetch or import a statement first."))
		return nil
	}

	enricher, err := initEnricher()
	if err != nil {
		return err
	}
	defer enricher.Close()

	eng := engine.NewWithConfig(store, enricher, engine.Config{
		CacheConcurrency: viper.GetInt("engine.cache_concurrency"),
	})

	slog.Info("Analyzing transactions", "count", len(txs), "user", userID)

	stop := cli.NewSpinner("Analyzing transactions...", os.Stderr)
	analyzed, warnings, err := eng.AnalyzeBatch(ctx, userID, txs)
	stop()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	for _, w := range warnings {
		msg := w.Message
		if w.TransactionID != "" {
			msg = fmt.Sprintf("%s (transaction %s)", msg, w.TransactionID)
		}
		fmt.Println(cli.FormatWarning(msg))
	}

	analyzedCount := 0
	for _, tx := range analyzed {
		if tx.Analyzed {
			analyzedCount++
		}
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Analyzed %d of %d transactions", analyzedCount, len(analyzed))))

	// Refresh the ledger so newly analyzed positive impact becomes available
	// credit.
	led := ledger.New(store)
	impactView, err := led.Recompute(ctx, userID, analyzed)
	if err != nil {
		return fmt.Errorf("failed to update ledger: %w", err)
	}

	fmt.Println(renderImpactSummary(impactView))
	return nil
}

func fetchBankTransactions(cmd *cobra.Command, from, to string) ([]model.Transaction, error) {
	startDate, endDate, err := dateRangeFlags(from, to)
	if err != nil {
		return nil, err
	}

	client, err := plaid.NewClient(plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	})
	if err != nil {
		return nil, fmt.Errorf("plaid is not configured: %w", err)
	}

	return client.FetchTransactions(cmd.Context(), startDate, endDate)
}
