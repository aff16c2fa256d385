// Package plaid provides a bank provider backed by the Plaid API.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/mossburn/tally/internal/common"
	"github.com/mossburn/tally/internal/model"
	"github.com/mossburn/tally/internal/service"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("plaid client ID is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("plaid secret is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("plaid access token is required")
	}
	if c.Environment == "" {
		return fmt.Errorf("plaid environment is required")
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid Plaid environment: must be sandbox or production")
	}

	return nil
}

// Client fetches transactions from Plaid and maps them to unanalyzed
// domain transactions.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   *service.RetryOptions
	accessToken string
	environment string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		environment: cfg.Environment,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: &service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// FetchTransactions fetches transactions from Plaid within the specified
// date range.
func (c *Client) FetchTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"))

	var allTransactions []plaid.Transaction
	offset := int32(0)
	const pageSize = int32(500) // Plaid's max page size

	for {
		var plaidTransactions []plaid.Transaction

		retryErr := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				c.accessToken,
				startDate.Format("2006-01-02"),
				endDate.Format("2006-01-02"),
			)
			options := plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			}
			request.SetOptions(options)

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				if plaidError := extractPlaidError(err); plaidError != nil {
					if plaidError.ErrorCode == "RATE_LIMIT_EXCEEDED" {
						c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
						return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrBankRateLimit, plaidError.ErrorMessage), Retryable: true}
					}
					return fmt.Errorf("%w: %s - %s", common.ErrBankConnection, plaidError.ErrorCode, plaidError.ErrorMessage)
				}
				return fmt.Errorf("failed to fetch transactions: %w", err)
			}

			plaidTransactions = resp.GetTransactions()

			c.logger.Debug("Fetched transaction page",
				"count", len(plaidTransactions),
				"offset", offset,
				"total", resp.GetTotalTransactions())

			return nil
		}, *c.retryOpts)

		if retryErr != nil {
			return nil, retryErr
		}

		allTransactions = append(allTransactions, plaidTransactions...)

		if len(plaidTransactions) < int(pageSize) {
			break
		}

		offset += pageSize
	}

	c.logger.Info("Fetched all transactions", "count", len(allTransactions))

	transactions := make([]model.Transaction, 0, len(allTransactions))
	for _, pt := range allTransactions {
		tx, ok := c.mapPlaidTransaction(pt)
		if !ok {
			continue
		}
		transactions = append(transactions, tx)
	}

	return transactions, nil
}

// GetAccounts fetches linked account IDs from Plaid.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	var accounts []plaid.AccountBase
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			if plaidError := extractPlaidError(err); plaidError != nil {
				if plaidError.ErrorCode == "RATE_LIMIT_EXCEEDED" {
					return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrBankRateLimit, plaidError.ErrorMessage), Retryable: true}
				}
				return fmt.Errorf("%w: %s - %s", common.ErrBankConnection, plaidError.ErrorCode, plaidError.ErrorMessage)
			}
			return fmt.Errorf("failed to fetch accounts: %w", err)
		}

		accounts = resp.GetAccounts()
		return nil
	}, *c.retryOpts)

	if retryErr != nil {
		return nil, retryErr
	}

	accountIDs := make([]string, 0, len(accounts))
	for _, account := range accounts {
		accountIDs = append(accountIDs, account.GetAccountId())
	}

	return accountIDs, nil
}

// mapPlaidTransaction converts a Plaid transaction to an unanalyzed domain
// transaction. Credits (money in) and zero-amount entries are skipped; only
// spending carries ethical weight.
func (c *Client) mapPlaidTransaction(pt plaid.Transaction) (model.Transaction, bool) {
	// In Plaid, positive amounts are debits (money out).
	amount := pt.GetAmount()
	if amount <= 0 {
		return model.Transaction{}, false
	}

	date, err := time.Parse("2006-01-02", pt.GetDate())
	if err != nil {
		c.logger.Error("Failed to parse transaction date", "date", pt.GetDate(), "error", err)
		date = time.Now()
	}

	merchantName := pt.GetMerchantName()
	if merchantName == "" {
		merchantName = pt.GetName()
	}
	merchantName = cleanMerchantName(merchantName)

	return model.Transaction{
		Date:         date,
		ID:           pt.GetTransactionId(),
		MerchantName: merchantName,
		AccountID:    pt.GetAccountId(),
		Amount:       amount,
	}, true
}

// cleanMerchantName standardizes merchant names by title-casing, dropping
// trailing transaction numbers, and removing corporate suffixes.
func cleanMerchantName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		if word != "" {
			runes := []rune(word)
			for j := 0; j < len(runes); j++ {
				if j == 0 || (j > 0 && !isLetter(runes[j-1])) {
					runes[j] = toUpper(runes[j])
				}
			}
			words[i] = string(runes)
		}
	}
	name = strings.Join(words, " ")

	// A trailing all-digit run longer than 5 chars is almost always a
	// transaction or reference number, not part of the merchant's name.
	parts := strings.Fields(name)
	if len(parts) > 1 {
		lastPart := parts[len(parts)-1]
		if len(lastPart) > 5 && isAllDigits(lastPart) {
			parts = parts[:len(parts)-1]
		}
	}
	name = strings.Join(parts, " ")

	suffixes := []string{
		" Llc",
		" Inc",
		" Corp",
		" Corporation",
		" Company",
		" Co",
		" Ltd",
		" Limited",
	}

	changed := true
	for changed {
		changed = false
		for _, suffix := range suffixes {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				changed = true
			}
		}
	}

	return strings.TrimSpace(name)
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure Client implements the bank provider contract.
var _ service.BankProvider = (*Client)(nil)
