// Package impact computes ethical-impact aggregates over transaction lists.
// Everything here is pure and deterministic: no I/O, no clock, no state.
package impact

import (
	"math"

	"github.com/mossburn/tally/internal/model"
)

// Sentinel categories for practices without a declared category.
const (
	UncategorizedPositive = "Uncategorized Positive"
	UncategorizedNegative = "Uncategorized Negative"
)

// PositiveImpact sums the ethical-practice contributions across transactions.
// Each practice contributes amount * weight/100.
func PositiveImpact(txs []model.Transaction) float64 {
	var total float64
	for i := range txs {
		for _, practice := range txs[i].EthicalPractices {
			total += contribution(&txs[i], practice)
		}
	}
	return total
}

// NegativeImpact sums the unethical-practice contributions across
// transactions.
func NegativeImpact(txs []model.Transaction) float64 {
	var total float64
	for i := range txs {
		for _, practice := range txs[i].UnethicalPractices {
			total += contribution(&txs[i], practice)
		}
	}
	return total
}

// TotalSpent sums transaction amounts, skipping non-finite values.
func TotalSpent(txs []model.Transaction) float64 {
	var total float64
	for i := range txs {
		if amt := txs[i].Amount; isFinite(amt) {
			total += amt
		}
	}
	return total
}

// DebtPercentage is negative impact as a percentage of total spend, defined
// as 0 when total spend is 0.
func DebtPercentage(txs []model.Transaction) float64 {
	spent := TotalSpent(txs)
	if spent == 0 {
		return 0
	}
	return NegativeImpact(txs) / spent * 100
}

// ByCategory groups per-practice contributions by each practice's declared
// category. Practices without a category fall back to the uncategorized
// sentinel rather than erroring.
func ByCategory(txs []model.Transaction, positive bool) map[string]float64 {
	fallback := UncategorizedNegative
	if positive {
		fallback = UncategorizedPositive
	}

	totals := make(map[string]float64)
	for i := range txs {
		practices := txs[i].UnethicalPractices
		if positive {
			practices = txs[i].EthicalPractices
		}
		for _, practice := range practices {
			category := txs[i].PracticeCategories[practice]
			if category == "" {
				category = fallback
			}
			totals[category] += contribution(&txs[i], practice)
		}
	}
	return totals
}

// Summarize computes the full derived impact view for a transaction list and
// credit state.
func Summarize(txs []model.Transaction, state *model.CreditState) model.ImpactAnalysis {
	analysis := model.ImpactAnalysis{
		PositiveImpact:     PositiveImpact(txs),
		NegativeImpact:     NegativeImpact(txs),
		TotalSpent:         TotalSpent(txs),
		DebtPercentage:     DebtPercentage(txs),
		PositiveByCategory: ByCategory(txs, true),
		NegativeByCategory: ByCategory(txs, false),
	}

	if state != nil {
		analysis.AvailableCredit = state.AvailableCredit
		analysis.AppliedCredit = state.AppliedCredit
	}
	analysis.EffectiveDebt = math.Max(0, analysis.NegativeImpact-analysis.AppliedCredit)

	return analysis
}

// contribution returns one practice's share of a transaction's amount. A
// malformed weight (NaN, infinite, or outside [0,100]) is clamped so a single
// bad field never corrupts an aggregate total.
func contribution(tx *model.Transaction, practice string) float64 {
	weight, ok := tx.PracticeWeights[practice]
	if !ok || !isFinite(weight) || !isFinite(tx.Amount) {
		return 0
	}
	if weight < 0 {
		weight = 0
	} else if weight > 100 {
		weight = 100
	}
	return tx.Amount * weight / 100
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
