// Package ledger tracks a user's earned ethical credit and applies it against
// outstanding debt under a per-user single-writer discipline.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mossburn/tally/internal/common"
	"github.com/mossburn/tally/internal/impact"
	"github.com/mossburn/tally/internal/model"
	"github.com/mossburn/tally/internal/service"
)

// Ledger manages per-user credit state against the durable store.
type Ledger struct {
	storage   service.Storage
	userLocks map[string]*sync.Mutex
	now       func() time.Time
	retryOpts service.RetryOptions
	mu        sync.Mutex
}

// New creates a ledger backed by the given storage.
func New(storage service.Storage) *Ledger {
	return &Ledger{
		storage:   storage,
		userLocks: make(map[string]*sync.Mutex),
		now:       time.Now,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
		},
	}
}

// Recompute refreshes the user's available credit from the current
// transaction list and returns the full derived impact view. Available credit
// tracks total positive impact as a running balance; it is intentionally not
// reduced by credit previously applied from the same transactions.
func (l *Ledger) Recompute(ctx context.Context, userID string, txs []model.Transaction) (model.ImpactAnalysis, error) {
	if userID == "" {
		return model.ImpactAnalysis{}, common.ErrMissingUserID
	}

	lock := l.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	state, err := l.loadState(ctx, userID)
	if err != nil {
		return model.ImpactAnalysis{}, err
	}

	state.AvailableCredit = impact.PositiveImpact(txs)
	if err := l.saveState(ctx, state); err != nil {
		return model.ImpactAnalysis{}, err
	}

	return impact.Summarize(txs, state), nil
}

// ApplyCredit moves credit from available to applied, bounded by the request,
// the available balance, and the current effective debt. A bound of zero or
// less is not an error: the call is a no-op returning (0, false, nil).
//
// Calls for the same user are serialized so concurrent applies cannot both
// read the same balance and independently subtract from it.
func (l *Ledger) ApplyCredit(ctx context.Context, userID string, txs []model.Transaction, requested float64) (float64, bool, error) {
	if userID == "" {
		return 0, false, common.ErrMissingUserID
	}
	if requested < 0 || math.IsNaN(requested) {
		return 0, false, fmt.Errorf("%w: %f", common.ErrNegativeAmount, requested)
	}

	lock := l.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	state, err := l.loadState(ctx, userID)
	if err != nil {
		return 0, false, err
	}

	effectiveDebt := math.Max(0, impact.NegativeImpact(txs)-state.AppliedCredit)
	creditToApply := math.Min(requested, math.Min(state.AvailableCredit, effectiveDebt))
	if creditToApply <= 0 {
		slog.Debug("apply credit is a no-op",
			"user_id", userID,
			"requested", requested,
			"available", state.AvailableCredit,
			"effective_debt", effectiveDebt)
		return 0, false, nil
	}

	state.AvailableCredit -= creditToApply
	state.AppliedCredit += creditToApply
	state.LastAppliedAmount = creditToApply
	state.LastAppliedAt = l.now()

	if err := l.saveState(ctx, state); err != nil {
		return 0, false, err
	}

	slog.Info("credit applied",
		"user_id", userID,
		"applied", creditToApply,
		"available_remaining", state.AvailableCredit,
		"applied_total", state.AppliedCredit)

	return creditToApply, true, nil
}

// GetImpact returns the derived impact view without mutating persisted state.
func (l *Ledger) GetImpact(ctx context.Context, userID string, txs []model.Transaction) (model.ImpactAnalysis, error) {
	if userID == "" {
		return model.ImpactAnalysis{}, common.ErrMissingUserID
	}

	state, err := l.loadState(ctx, userID)
	if err != nil {
		return model.ImpactAnalysis{}, err
	}

	return impact.Summarize(txs, state), nil
}

func (l *Ledger) loadState(ctx context.Context, userID string) (*model.CreditState, error) {
	var state *model.CreditState
	err := common.WithRetry(ctx, func() error {
		var opErr error
		state, opErr = l.storage.GetCreditState(ctx, userID)
		return opErr
	}, l.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to load credit state: %w", err)
	}
	return state, nil
}

func (l *Ledger) saveState(ctx context.Context, state *model.CreditState) error {
	err := common.WithRetry(ctx, func() error {
		return l.storage.SaveCreditState(ctx, state)
	}, l.retryOpts)
	if err != nil {
		return fmt.Errorf("failed to save credit state: %w", err)
	}
	return nil
}

func (l *Ledger) lockUser(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.userLocks[userID] = lock
	}
	return lock
}
