package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mossburn/tally/internal/common"
	"github.com/mossburn/tally/internal/model"
)

// SaveTransactionBatch appends a reconciled transaction snapshot for a user.
func (s *SQLiteStorage) SaveTransactionBatch(ctx context.Context, batch *model.TransactionBatch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatch(batch); err != nil {
		return err
	}

	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(batch.Transactions)
	if err != nil {
		return fmt.Errorf("failed to marshal transactions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transaction_batches (id, user_id, transactions, created_at)
		VALUES (?, ?, ?, ?)
	`, batch.ID, batch.UserID, string(payload), batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save transaction batch: %w", err)
	}
	return nil
}

// GetLatestTransactionBatch returns the newest batch for a user, or
// common.ErrNotFound if none exists yet.
func (s *SQLiteStorage) GetLatestTransactionBatch(ctx context.Context, userID string) (*model.TransactionBatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var batch model.TransactionBatch
	var payload string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, transactions, created_at
		FROM transaction_batches
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID).Scan(&batch.ID, &batch.UserID, &payload, &batch.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest batch: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &batch.Transactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
	}
	return &batch, nil
}

// GetTransactionBatches returns up to limit batches for a user, latest first.
// A non-positive limit returns all batches.
func (s *SQLiteStorage) GetTransactionBatches(ctx context.Context, userID string, limit int) ([]model.TransactionBatch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, transactions, created_at
		FROM transaction_batches
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var batches []model.TransactionBatch
	for rows.Next() {
		var batch model.TransactionBatch
		var payload string
		if err := rows.Scan(&batch.ID, &batch.UserID, &payload, &batch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &batch.Transactions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
		}
		batches = append(batches, batch)
	}

	return batches, rows.Err()
}
