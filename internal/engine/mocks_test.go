package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/mossburn/tally/internal/common"
	"github.com/mossburn/tally/internal/model"
	"github.com/mossburn/tally/internal/service"
)

// mockStorage is an in-memory service.Storage with failure injection.
type mockStorage struct {
	vendors        map[string]model.VendorAnalysis
	batches        map[string][]model.TransactionBatch
	credits        map[string]model.CreditState
	mu             sync.Mutex
	vendorGets     int
	vendorSaves    int
	failVendorSave bool
	failVendorGet  bool
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		vendors: make(map[string]model.VendorAnalysis),
		batches: make(map[string][]model.TransactionBatch),
		credits: make(map[string]model.CreditState),
	}
}

func (m *mockStorage) GetVendorAnalysis(_ context.Context, vendorKey string) (*model.VendorAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vendorGets++
	if m.failVendorGet {
		return nil, &common.RetryableError{Err: errors.New("disk I/O error"), Retryable: false}
	}
	analysis, ok := m.vendors[vendorKey]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &analysis, nil
}

func (m *mockStorage) SaveVendorAnalysis(_ context.Context, analysis *model.VendorAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vendorSaves++
	if m.failVendorSave {
		return &common.RetryableError{Err: common.ErrDuplicateEntry, Retryable: false}
	}
	m.vendors[analysis.VendorKey] = *analysis
	return nil
}

func (m *mockStorage) GetAllVendorAnalyses(context.Context) ([]model.VendorAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.VendorAnalysis, 0, len(m.vendors))
	for _, v := range m.vendors {
		out = append(out, v)
	}
	return out, nil
}

func (m *mockStorage) SaveTransactionBatch(_ context.Context, batch *model.TransactionBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[batch.UserID] = append(m.batches[batch.UserID], *batch)
	return nil
}

func (m *mockStorage) GetLatestTransactionBatch(_ context.Context, userID string) (*model.TransactionBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batches := m.batches[userID]
	if len(batches) == 0 {
		return nil, common.ErrNotFound
	}
	latest := batches[len(batches)-1]
	return &latest, nil
}

func (m *mockStorage) GetTransactionBatches(_ context.Context, userID string, limit int) ([]model.TransactionBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batches := m.batches[userID]
	out := make([]model.TransactionBatch, 0, len(batches))
	for i := len(batches) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, batches[i])
	}
	return out, nil
}

func (m *mockStorage) GetCreditState(_ context.Context, userID string) (*model.CreditState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.credits[userID]
	if !ok {
		state = model.CreditState{UserID: userID}
	}
	return &state, nil
}

func (m *mockStorage) SaveCreditState(_ context.Context, state *model.CreditState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credits[state.UserID] = *state
	return nil
}

func (m *mockStorage) Migrate(context.Context) error { return nil }
func (m *mockStorage) Close() error                  { return nil }

// mockEnricher counts calls and answers from a canned result set keyed by
// stub id, or fails outright.
type mockEnricher struct {
	err     error
	results map[string]service.AnalysisResult
	calls   int
	stubs   [][]service.TransactionStub
	mu      sync.Mutex
}

func (m *mockEnricher) Analyze(_ context.Context, stubs []service.TransactionStub) ([]service.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.stubs = append(m.stubs, stubs)
	if m.err != nil {
		return nil, m.err
	}
	var out []service.AnalysisResult
	for _, stub := range stubs {
		if result, ok := m.results[stub.ID]; ok {
			out = append(out, result)
		}
	}
	return out, nil
}
