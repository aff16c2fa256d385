// Package model defines the core domain types shared across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Transaction represents a single financial transaction from any source,
// together with its ethical-impact analysis once one has been attached.
type Transaction struct {
	Date               time.Time          `json:"date"`
	PracticeWeights    map[string]float64 `json:"practiceWeights,omitempty"`
	PracticeCategories map[string]string  `json:"practiceCategories,omitempty"`
	Information        map[string]string  `json:"information,omitempty"`
	Citations          map[string]string  `json:"citations,omitempty"`
	ID                 string             `json:"id,omitempty"` // Provider-assigned id, may be empty
	MerchantName       string             `json:"merchantName"`
	AccountID          string             `json:"accountId,omitempty"`
	UnethicalPractices []string           `json:"unethicalPractices,omitempty"`
	EthicalPractices   []string           `json:"ethicalPractices,omitempty"`
	Amount             float64            `json:"amount"`
	Analyzed           bool               `json:"analyzed"`
}

// Identity returns the stable identifier used for merging and deduplication.
// A provider-assigned id wins and is namespaced with "ext:". The fallback
// composite of date, merchant, and amount is a documented approximation: two
// genuinely distinct same-day, same-amount charges at one merchant collide.
func (t *Transaction) Identity() string {
	if t.ID != "" {
		return "ext:" + t.ID
	}
	return fmt.Sprintf("%s|%s|%.2f",
		t.Date.Format("2006-01-02"),
		strings.ToUpper(strings.TrimSpace(t.MerchantName)),
		t.Amount)
}

// ApplyAnalysis copies the analysis fields of a vendor analysis onto the
// transaction and marks it analyzed. Practice maps are copied, not shared, so
// later cache overwrites cannot mutate an already-merged transaction.
func (t *Transaction) ApplyAnalysis(va *VendorAnalysis) {
	if va == nil {
		return
	}
	t.UnethicalPractices = append([]string(nil), va.UnethicalPractices...)
	t.EthicalPractices = append([]string(nil), va.EthicalPractices...)
	t.PracticeWeights = copyMap(va.PracticeWeights)
	t.PracticeCategories = copyMap(va.PracticeCategories)
	t.Information = copyMap(va.Information)
	t.Citations = copyMap(va.Citations)
	t.Analyzed = true
}

func copyMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
