package plaid

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossburn/tally/internal/model"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		config  Config
		name    string
		errMsg  string
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "sandbox",
				AccessToken: "test-token",
			},
			wantErr: false,
		},
		{
			name: "missing client ID",
			config: Config{
				Secret:      "test-secret",
				Environment: "sandbox",
				AccessToken: "test-token",
			},
			wantErr: true,
			errMsg:  "plaid client ID is required",
		},
		{
			name: "missing secret",
			config: Config{
				ClientID:    "test-client-id",
				Environment: "sandbox",
				AccessToken: "test-token",
			},
			wantErr: true,
			errMsg:  "plaid secret is required",
		},
		{
			name: "missing access token",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "sandbox",
			},
			wantErr: true,
			errMsg:  "plaid access token is required",
		},
		{
			name: "invalid environment",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "development",
				AccessToken: "test-token",
			},
			wantErr: true,
			errMsg:  "invalid Plaid environment",
		},
		{
			name: "valid production environment",
			config: Config{
				ClientID:    "test-client-id",
				Secret:      "test-secret",
				Environment: "production",
				AccessToken: "test-token",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{
		ClientID:    "test-client-id",
		Secret:      "test-secret",
		Environment: "sandbox",
		AccessToken: "test-token",
	})
	require.NoError(t, err)
	assert.NotNil(t, client.client)
	assert.Equal(t, "test-token", client.accessToken)
	assert.NotNil(t, client.logger)
	assert.NotNil(t, client.retryOpts)

	_, err = NewClient(Config{ClientID: "test-client-id"})
	require.Error(t, err)
}

func TestClient_FetchTransactions_Validation(t *testing.T) {
	client, err := NewClient(Config{
		ClientID:    "test-client-id",
		Secret:      "test-secret",
		Environment: "sandbox",
		AccessToken: "test-token",
	})
	require.NoError(t, err)

	_, err = client.FetchTransactions(context.Background(), time.Now(), time.Now().AddDate(0, -1, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start date must be before end date")
}

func TestCleanMerchantName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "basic name",
			input:    "Starbucks",
			expected: "Starbucks",
		},
		{
			name:     "lowercase to title case",
			input:    "starbucks coffee",
			expected: "Starbucks Coffee",
		},
		{
			name:     "remove LLC suffix",
			input:    "Amazon LLC",
			expected: "Amazon",
		},
		{
			name:     "remove Inc suffix",
			input:    "Apple Inc",
			expected: "Apple",
		},
		{
			name:     "remove transaction ID",
			input:    "PAYPAL 123456789",
			expected: "Paypal",
		},
		{
			name:     "preserve short numbers",
			input:    "7-ELEVEN 2345",
			expected: "7-Eleven 2345",
		},
		{
			name:     "multiple cleanups",
			input:    "amazon.com llc 987654321",
			expected: "Amazon.Com",
		},
		{
			name:     "extra spaces",
			input:    "  Google   Cloud   ",
			expected: "Google Cloud",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanMerchantName(tt.input))
		})
	}
}

func TestIsAllDigits(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"123456", true},
		{"000000", true},
		{"12a456", false},
		{"", true}, // edge case: empty string
		{"ABC123", false},
		{"12.34", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, isAllDigits(tt.input))
		})
	}
}

func TestMockClient(t *testing.T) {
	mock := NewMockClient()

	startDate := time.Now().AddDate(0, -1, 0)
	endDate := time.Now()

	expectedTxs := []model.Transaction{
		{
			ID:           "tx1",
			MerchantName: "Test Merchant",
			Amount:       10.50,
		},
	}
	mock.FetchTransactionsFn = func(_ context.Context, _, _ time.Time) ([]model.Transaction, error) {
		return expectedTxs, nil
	}

	txs, err := mock.FetchTransactions(context.Background(), startDate, endDate)
	require.NoError(t, err)
	assert.Equal(t, expectedTxs, txs)

	assert.Len(t, mock.FetchTransactionsCalls, 1)
	assert.Equal(t, startDate, mock.FetchTransactionsCalls[0].StartDate)
	assert.Equal(t, endDate, mock.FetchTransactionsCalls[0].EndDate)

	mock.Reset()
	assert.Len(t, mock.FetchTransactionsCalls, 0)
}
