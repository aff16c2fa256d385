// Package engine implements the cache-first analysis orchestrator that fills
// in ethical-impact data for transaction batches.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mossburn/tally/internal/common"
	"github.com/mossburn/tally/internal/merge"
	"github.com/mossburn/tally/internal/model"
	"github.com/mossburn/tally/internal/service"
)

// Engine orchestrates batch analysis: already-analyzed transactions are
// skipped, cache hits are merged immediately, and the remainder goes to the
// enrichment provider in a single batched call.
type Engine struct {
	storage     service.Storage
	enricher    service.Enricher
	concurrency int
	cacheRetry  service.RetryOptions
}

// Config holds configuration options for the analysis engine.
type Config struct {
	// CacheConcurrency bounds the worker pool for vendor-cache lookups.
	CacheConcurrency int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{CacheConcurrency: 8}
}

// New creates an analysis engine with the given dependencies.
func New(storage service.Storage, enricher service.Enricher) *Engine {
	return NewWithConfig(storage, enricher, DefaultConfig())
}

// NewWithConfig creates an analysis engine with custom configuration.
func NewWithConfig(storage service.Storage, enricher service.Enricher, cfg Config) *Engine {
	concurrency := cfg.CacheConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Engine{
		storage:     storage,
		enricher:    enricher,
		concurrency: concurrency,
		cacheRetry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
		},
	}
}

// AnalyzeBatch returns the input list with every transaction either already
// analyzed, filled from the vendor cache, or filled from the enrichment
// provider. Partial failures degrade the affected transactions to unanalyzed
// and are reported as warnings; they never fail the batch. Analysis state
// only ratchets forward: re-running on the same input cannot regress it.
func (e *Engine) AnalyzeBatch(ctx context.Context, userID string, txs []model.Transaction) ([]model.Transaction, []service.Warning, error) {
	if userID == "" {
		return nil, nil, common.ErrMissingUserID
	}
	if len(txs) == 0 {
		return txs, nil, nil
	}

	var candidates []model.Transaction
	alreadyAnalyzed := 0
	for _, tx := range txs {
		if tx.Analyzed {
			alreadyAnalyzed++
			continue
		}
		candidates = append(candidates, tx)
	}

	slog.Info("starting batch analysis",
		"user_id", userID,
		"total", len(txs),
		"already_analyzed", alreadyAnalyzed,
		"candidates", len(candidates))

	var warnings []service.Warning

	cached, cacheWarnings := e.lookupVendorCache(ctx, candidates)
	warnings = append(warnings, cacheWarnings...)

	var updated []model.Transaction
	var needsEnrichment []model.Transaction
	for _, tx := range candidates {
		if analysis, ok := cached[model.NormalizeVendorName(tx.MerchantName)]; ok {
			tx.ApplyAnalysis(analysis)
			updated = append(updated, tx)
			continue
		}
		needsEnrichment = append(needsEnrichment, tx)
	}

	enriched, enrichWarnings := e.enrichBatch(ctx, needsEnrichment)
	warnings = append(warnings, enrichWarnings...)
	updated = append(updated, enriched...)

	// The merge ratchet guarantees analysis attached above survives, and base
	// order is preserved.
	result := merge.Transactions(txs, updated)

	// Cache writes happen after the in-memory list is finalized and are
	// best-effort only.
	warnings = append(warnings, e.upsertCacheEntries(ctx, enriched)...)

	if err := e.persistBatch(ctx, userID, result); err != nil {
		slog.Warn("failed to persist transaction batch", "user_id", userID, "error", err)
		warnings = append(warnings, service.Warning{
			Kind:    service.WarnCacheWrite,
			Message: fmt.Sprintf("failed to persist transaction batch: %v", err),
		})
	}

	stillPending := 0
	for _, tx := range result {
		if !tx.Analyzed {
			stillPending++
		}
	}
	slog.Info("batch analysis complete",
		"user_id", userID,
		"analyzed", len(result)-stillPending,
		"still_pending", stillPending,
		"warnings", len(warnings))

	return result, warnings, nil
}

// lookupVendorCache resolves the distinct vendor keys of the candidates
// against the cache with a bounded worker pool. Cache reads are idempotent
// and side-effect free, so unordered concurrent execution is safe. Lookup
// failures degrade to cache misses.
func (e *Engine) lookupVendorCache(ctx context.Context, candidates []model.Transaction) (map[string]*model.VendorAnalysis, []service.Warning) {
	keys := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, tx := range candidates {
		key := model.NormalizeVendorName(tx.MerchantName)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}

	hits := make(map[string]*model.VendorAnalysis, len(keys))
	var warnings []service.Warning
	var mu sync.Mutex

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for _, key := range keys {
		wg.Add(1)
		go func(vendorKey string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			var analysis *model.VendorAnalysis
			err := common.WithRetry(ctx, func() error {
				var opErr error
				analysis, opErr = e.storage.GetVendorAnalysis(ctx, vendorKey)
				if opErr != nil && errors.Is(opErr, common.ErrNotFound) {
					analysis = nil
					return nil
				}
				return opErr
			}, e.cacheRetry)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, service.Warning{
					Kind:    service.WarnCacheRead,
					Message: fmt.Sprintf("cache lookup failed for vendor %q: %v", vendorKey, err),
				})
				return
			}
			if analysis != nil {
				hits[vendorKey] = analysis
			}
		}(key)
	}

	wg.Wait()
	return hits, warnings
}

// enrichBatch issues the single batched enrichment call and matches results
// back by echoed id. Transactions without a matching result stay unanalyzed
// and are surfaced as warnings, never silently dropped.
func (e *Engine) enrichBatch(ctx context.Context, txs []model.Transaction) ([]model.Transaction, []service.Warning) {
	if len(txs) == 0 {
		return nil, nil
	}

	stubs := make([]service.TransactionStub, len(txs))
	for i, tx := range txs {
		stubs[i] = service.TransactionStub{
			ID:           tx.Identity(),
			Date:         tx.Date,
			MerchantName: tx.MerchantName,
			Amount:       tx.Amount,
		}
	}

	results, err := e.enricher.Analyze(ctx, stubs)
	if err != nil {
		slog.Warn("enrichment call failed, transactions stay unanalyzed",
			"count", len(txs), "error", err)
		return nil, []service.Warning{{
			Kind:    service.WarnEnrichmentFailed,
			Message: fmt.Sprintf("enrichment failed for %d transactions: %v", len(txs), err),
		}}
	}

	// Match by echoed id, never by position: the provider is not guaranteed
	// to preserve order or cardinality.
	byID := make(map[string]service.AnalysisResult, len(results))
	for _, result := range results {
		byID[result.ID] = result
	}

	var enriched []model.Transaction
	var warnings []service.Warning
	for _, tx := range txs {
		result, ok := byID[tx.Identity()]
		if !ok {
			warnings = append(warnings, service.Warning{
				Kind:          service.WarnResultMissing,
				TransactionID: tx.Identity(),
				Message:       fmt.Sprintf("no enrichment result for transaction at %q", tx.MerchantName),
			})
			continue
		}
		tx.ApplyAnalysis(analysisFromResult(tx.MerchantName, result))
		enriched = append(enriched, tx)
	}

	return enriched, warnings
}

// upsertCacheEntries writes one wholesale cache entry per distinct vendor key
// of the newly enriched transactions. Failures are reported, not fatal.
func (e *Engine) upsertCacheEntries(ctx context.Context, enriched []model.Transaction) []service.Warning {
	entries := make(map[string]*model.VendorAnalysis, len(enriched))
	for i := range enriched {
		key := model.NormalizeVendorName(enriched[i].MerchantName)
		if key == "" {
			continue
		}
		entries[key] = analysisFromTransaction(key, &enriched[i])
	}

	var warnings []service.Warning
	for key, entry := range entries {
		err := common.WithRetry(ctx, func() error {
			return e.storage.SaveVendorAnalysis(ctx, entry)
		}, e.cacheRetry)
		if err != nil {
			slog.Warn("failed to write vendor cache entry", "vendor_key", key, "error", err)
			warnings = append(warnings, service.Warning{
				Kind:    service.WarnCacheWrite,
				Message: fmt.Sprintf("failed to cache analysis for vendor %q: %v", key, err),
			})
		}
	}
	return warnings
}

func (e *Engine) persistBatch(ctx context.Context, userID string, txs []model.Transaction) error {
	batch := &model.TransactionBatch{
		ID:           uuid.NewString(),
		UserID:       userID,
		CreatedAt:    time.Now(),
		Transactions: txs,
	}
	return common.WithRetry(ctx, func() error {
		return e.storage.SaveTransactionBatch(ctx, batch)
	}, e.cacheRetry)
}

func analysisFromResult(merchantName string, result service.AnalysisResult) *model.VendorAnalysis {
	return &model.VendorAnalysis{
		VendorKey:          model.NormalizeVendorName(merchantName),
		UnethicalPractices: result.UnethicalPractices,
		EthicalPractices:   result.EthicalPractices,
		PracticeWeights:    result.PracticeWeights,
		PracticeCategories: result.PracticeCategories,
		Information:        result.Information,
		Citations:          result.Citations,
	}
}

func analysisFromTransaction(vendorKey string, tx *model.Transaction) *model.VendorAnalysis {
	return &model.VendorAnalysis{
		VendorKey:          vendorKey,
		LastUpdated:        time.Now(),
		UnethicalPractices: tx.UnethicalPractices,
		EthicalPractices:   tx.EthicalPractices,
		PracticeWeights:    tx.PracticeWeights,
		PracticeCategories: tx.PracticeCategories,
		Information:        tx.Information,
		Citations:          tx.Citations,
	}
}
