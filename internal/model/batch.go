package model

import "time"

// TransactionBatch is a persisted snapshot of a user's reconciled transaction
// list. Batches are append-only and queried latest-first so a fresh fetch can
// be merged against the most recent prior state.
type TransactionBatch struct {
	CreatedAt    time.Time
	ID           string
	UserID       string
	Transactions []Transaction
}
