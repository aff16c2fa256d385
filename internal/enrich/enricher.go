package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mossburn/tally/internal/common"
	"github.com/mossburn/tally/internal/service"
)

// Config holds configuration for the enrichment provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Timeout     time.Duration
	RetryDelay  time.Duration
	MaxRetries  int
	RateLimit   int
	MaxTokens   int
	Temperature float64
}

// Enricher implements service.Enricher on top of a completion API. Each
// Analyze call is a single batched request; the provider is costly and
// rate-limited, so per-transaction calls are never issued.
type Enricher struct {
	client      Client
	logger      *slog.Logger
	rateLimiter *rateLimiter
	timeout     time.Duration
	retryOpts   service.RetryOptions
}

// NewEnricher creates an enricher for the configured provider.
func NewEnricher(cfg Config, logger *slog.Logger) (*Enricher, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		client, err = newOpenAIClient(cfg)
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported enrichment provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Enricher{
		client:      client,
		logger:      logger,
		timeout:     timeout,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

// Analyze sends all stubs to the provider in one batched call and returns the
// validated per-transaction results. The call carries a hard timeout and is
// cancellable through the caller's context. Timeouts and malformed responses
// fail the whole batch; they are never blindly retried.
func (e *Enricher) Analyze(ctx context.Context, stubs []service.TransactionStub) ([]service.AnalysisResult, error) {
	if len(stubs) == 0 {
		return nil, nil
	}

	if err := e.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(stubs)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	var content string
	err = common.WithRetry(callCtx, func() error {
		var opErr error
		content, opErr = e.client.Complete(callCtx, prompt)
		if opErr != nil && errors.Is(opErr, context.DeadlineExceeded) {
			// A timed-out batch is failed outright, not retried.
			return &common.RetryableError{Err: common.ErrProviderTimeout, Retryable: false}
		}
		return opErr
	}, e.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEnrichmentFailed, err)
	}

	results, err := parseResults(content)
	if err != nil {
		return nil, err
	}

	e.logger.Info("enrichment batch complete",
		"requested", len(stubs),
		"returned", len(results),
		"duration", time.Since(start))

	return results, nil
}

// Close releases the enricher's background resources.
func (e *Enricher) Close() {
	e.rateLimiter.Close()
}
