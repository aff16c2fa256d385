package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mossburn/tally/internal/model"
)

// GetCreditState returns the user's credit record, creating a zeroed record
// on first access.
func (s *SQLiteStorage) GetCreditState(ctx context.Context, userID string) (*model.CreditState, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var state model.CreditState
	var lastAppliedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, available_credit, applied_credit, last_applied_amount, last_applied_at
		FROM credit_states
		WHERE user_id = ?
	`, userID).Scan(
		&state.UserID,
		&state.AvailableCredit,
		&state.AppliedCredit,
		&state.LastAppliedAmount,
		&lastAppliedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return &model.CreditState{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit state: %w", err)
	}

	if lastAppliedAt.Valid {
		state.LastAppliedAt = lastAppliedAt.Time
	}
	return &state, nil
}

// SaveCreditState upserts the user's credit record.
func (s *SQLiteStorage) SaveCreditState(ctx context.Context, state *model.CreditState) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCreditState(state); err != nil {
		return err
	}

	var lastAppliedAt any
	if !state.LastAppliedAt.IsZero() {
		lastAppliedAt = state.LastAppliedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credit_states (user_id, available_credit, applied_credit, last_applied_amount, last_applied_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			available_credit = excluded.available_credit,
			applied_credit = excluded.applied_credit,
			last_applied_amount = excluded.last_applied_amount,
			last_applied_at = excluded.last_applied_at
	`, state.UserID, state.AvailableCredit, state.AppliedCredit, state.LastAppliedAmount, lastAppliedAt)

	if err != nil {
		return fmt.Errorf("failed to save credit state: %w", err)
	}
	return nil
}
