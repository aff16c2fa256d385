package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mossburn/tally/internal/cli"
	"github.com/mossburn/tally/internal/merge"
	"github.com/mossburn/tally/internal/model"
	"github.com/mossburn/tally/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import financial transactions from OFX or QFX (Quicken) files exported
from your bank. Imported transactions are reconciled against prior state, so
already-analyzed transactions keep their analysis.

Examples:
  # Import single file
  tally import ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory
  tally import ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	userID := currentUserID()

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	slog.Info("Importing statement files", "file_count", len(allFiles), "dry_run", dryRun)

	var imported []model.Transaction
	seen := make(map[string]bool)
	parser := ofx.NewParser()

	bar := cli.NewProgressBar(len(allFiles), "Importing statements...", os.Stderr)
	for _, filePath := range allFiles {
		f, err := os.Open(filePath)
		if err != nil {
			slog.Error("Failed to open file", "file", filePath, "error", err)
			_ = bar.Add(1)
			continue
		}

		transactions, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", filePath, "error", err)
			_ = bar.Add(1)
			continue
		}

		added := 0
		for _, tx := range transactions {
			if identity := tx.Identity(); !seen[identity] {
				seen[identity] = true
				imported = append(imported, tx)
				added++
			}
		}

		slog.Info("Processed file",
			"file", filepath.Base(filePath),
			"transactions_found", len(transactions),
			"added", added,
			"duplicates", len(transactions)-added)
		_ = bar.Add(1)
	}

	if len(imported) == 0 {
		fmt.Println(cli.FormatWarning("No transactions found in any file"))
		return nil
	}

	printImportSummary(imported)

	if dryRun {
		fmt.Println(cli.FormatInfo("Dry run complete, nothing saved"))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	prior, err := loadLatestTransactions(ctx, store, userID)
	if err != nil {
		return err
	}

	merged := merge.Transactions(prior, imported)
	batch := &model.TransactionBatch{
		ID:           uuid.NewString(),
		UserID:       userID,
		CreatedAt:    time.Now(),
		Transactions: merged,
	}
	if err := store.SaveTransactionBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to save imported transactions: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved %d transactions (%d new)", len(merged), len(merged)-len(prior))))
	return nil
}

func printImportSummary(transactions []model.Transaction) {
	var oldestDate, newestDate time.Time
	accountMap := make(map[string]int)
	totalAmount := 0.0

	for i, tx := range transactions {
		if i == 0 || tx.Date.Before(oldestDate) {
			oldestDate = tx.Date
		}
		if i == 0 || tx.Date.After(newestDate) {
			newestDate = tx.Date
		}
		accountMap[tx.AccountID]++
		totalAmount += tx.Amount
	}

	fmt.Printf("\n%s %d transactions from %s to %s across %d accounts, $%.2f total\n",
		cli.ChartIcon,
		len(transactions),
		oldestDate.Format("2006-01-02"),
		newestDate.Format("2006-01-02"),
		len(accountMap),
		totalAmount)
}
