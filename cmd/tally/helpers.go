package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/mossburn/tally/internal/common"
	"github.com/mossburn/tally/internal/config"
	"github.com/mossburn/tally/internal/enrich"
	"github.com/mossburn/tally/internal/model"
	"github.com/mossburn/tally/internal/service"
	"github.com/mossburn/tally/internal/storage"
)

// initStorage opens the SQLite store and brings the schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEnricher builds the enrichment provider client from configuration.
func initEnricher() (*enrich.Enricher, error) {
	provider := viper.GetString("enrichment.provider")
	if provider == "" {
		provider = "openai"
	}

	apiKey := viper.GetString("enrichment.api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: enrichment.api_key (or TALLY_ENRICHMENT_API_KEY) is required", common.ErrMissingConfig)
	}

	cfg := enrich.Config{
		Provider:    provider,
		APIKey:      apiKey,
		Model:       viper.GetString("enrichment.model"),
		Timeout:     viper.GetDuration("enrichment.timeout"),
		MaxRetries:  viper.GetInt("enrichment.max_retries"),
		RateLimit:   viper.GetInt("enrichment.rate_limit"),
		Temperature: viper.GetFloat64("enrichment.temperature"),
	}

	return enrich.NewEnricher(cfg, slog.Default())
}

// currentUserID resolves the user identifier for ledger operations.
func currentUserID() string {
	userID := viper.GetString("user.id")
	if userID == "" {
		userID = "default"
	}
	return userID
}

// loadLatestTransactions returns the most recent batch for the user, or an
// empty slice if no batch has been persisted yet.
func loadLatestTransactions(ctx context.Context, store service.Storage, userID string) ([]model.Transaction, error) {
	batch, err := store.GetLatestTransactionBatch(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return batch.Transactions, nil
}

// dateRangeFlags parses the --from and --to flags, defaulting to the last 30
// days ending today.
func dateRangeFlags(from, to string) (time.Time, time.Time, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -30)

	if from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
		startDate = parsed
	}
	if to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		endDate = parsed
	}

	return startDate, endDate, nil
}
