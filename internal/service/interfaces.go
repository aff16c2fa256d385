// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mossburn/tally/internal/model"
)

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Vendor analysis cache, shared across users, keyed by normalized vendor
	// name. Entries are replaced wholesale on save.
	GetVendorAnalysis(ctx context.Context, vendorKey string) (*model.VendorAnalysis, error)
	SaveVendorAnalysis(ctx context.Context, analysis *model.VendorAnalysis) error
	GetAllVendorAnalyses(ctx context.Context) ([]model.VendorAnalysis, error)

	// Per-user transaction batches, queried latest-first.
	SaveTransactionBatch(ctx context.Context, batch *model.TransactionBatch) error
	GetLatestTransactionBatch(ctx context.Context, userID string) (*model.TransactionBatch, error)
	GetTransactionBatches(ctx context.Context, userID string, limit int) ([]model.TransactionBatch, error)

	// Per-user credit state. Get creates a zeroed record on first access.
	GetCreditState(ctx context.Context, userID string) (*model.CreditState, error)
	SaveCreditState(ctx context.Context, state *model.CreditState) error

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// TransactionStub is the minimal transaction view sent to the enrichment
// provider.
type TransactionStub struct {
	Date         time.Time
	ID           string
	MerchantName string
	Categories   []string
	Amount       float64
}

// AnalysisResult is a single per-transaction result from the enrichment
// provider. The provider must echo the stub's ID so results can be matched
// back safely; position and cardinality carry no meaning.
type AnalysisResult struct {
	PracticeWeights    map[string]float64
	PracticeCategories map[string]string
	Information        map[string]string
	Citations          map[string]string
	ID                 string
	UnethicalPractices []string
	EthicalPractices   []string
}

// Enricher defines the contract for the external enrichment provider. It is
// treated as unreliable: it may time out, return a subset of results, or
// return malformed payloads.
type Enricher interface {
	Analyze(ctx context.Context, stubs []TransactionStub) ([]AnalysisResult, error)
}

// BankProvider delivers raw transactions, mapped to unanalyzed model
// transactions, for a linked account.
type BankProvider interface {
	FetchTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
}

// WarningKind classifies non-fatal problems surfaced by a batch analysis.
type WarningKind string

const (
	// WarnEnrichmentFailed covers provider timeouts and malformed responses.
	WarnEnrichmentFailed WarningKind = "enrichment_failed"
	// WarnResultMissing marks a transaction the provider returned no result for.
	WarnResultMissing WarningKind = "result_missing"
	// WarnCacheWrite marks a best-effort cache upsert that failed.
	WarnCacheWrite WarningKind = "cache_write_failed"
	// WarnCacheRead marks a cache lookup that failed after retries.
	WarnCacheRead WarningKind = "cache_read_failed"
)

// Warning describes a non-fatal, per-batch problem. Partial failures degrade
// the affected transactions to unanalyzed rather than failing the batch.
type Warning struct {
	Kind          WarningKind
	Message       string
	TransactionID string
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
