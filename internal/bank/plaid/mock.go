package plaid

import (
	"context"
	"time"

	"github.com/mossburn/tally/internal/model"
	"github.com/mossburn/tally/internal/service"
)

// MockClient is a mock bank provider for testing.
type MockClient struct {
	// Functions that can be set by tests to control behavior
	FetchTransactionsFn func(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
	GetAccountsFn       func(ctx context.Context) ([]string, error)

	// Call tracking
	FetchTransactionsCalls []FetchTransactionsCall
	GetAccountsCalls       int
}

// FetchTransactionsCall records the parameters of a FetchTransactions call.
type FetchTransactionsCall struct {
	StartDate time.Time
	EndDate   time.Time
}

// NewMockClient creates a new mock bank provider.
func NewMockClient() *MockClient {
	return &MockClient{
		FetchTransactionsCalls: []FetchTransactionsCall{},
	}
}

// FetchTransactions implements service.BankProvider.
func (m *MockClient) FetchTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	m.FetchTransactionsCalls = append(m.FetchTransactionsCalls, FetchTransactionsCall{
		StartDate: startDate,
		EndDate:   endDate,
	})

	if m.FetchTransactionsFn != nil {
		return m.FetchTransactionsFn(ctx, startDate, endDate)
	}

	return []model.Transaction{}, nil
}

// GetAccounts returns the linked account IDs.
func (m *MockClient) GetAccounts(ctx context.Context) ([]string, error) {
	m.GetAccountsCalls++

	if m.GetAccountsFn != nil {
		return m.GetAccountsFn(ctx)
	}

	return []string{}, nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.FetchTransactionsCalls = []FetchTransactionsCall{}
	m.GetAccountsCalls = 0
}

var _ service.BankProvider = (*MockClient)(nil)
