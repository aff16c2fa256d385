package model

import "time"

// CreditState is the persisted per-user credit ledger record. Credit moves
// between available and applied; an apply operation never creates or destroys
// it.
type CreditState struct {
	LastAppliedAt     time.Time
	UserID            string
	AvailableCredit   float64
	AppliedCredit     float64
	LastAppliedAmount float64
}

// ImpactAnalysis is the derived summary of a transaction list combined with
// the user's credit state. It is recomputed on every change and never mutated
// in place.
type ImpactAnalysis struct {
	PositiveByCategory map[string]float64
	NegativeByCategory map[string]float64
	PositiveImpact     float64
	NegativeImpact     float64
	EffectiveDebt      float64
	AvailableCredit    float64
	AppliedCredit      float64
	DebtPercentage     float64
	TotalSpent         float64
}
