package model

import (
	"regexp"
	"strings"
	"time"
)

// VendorAnalysis is a cached ethical-impact analysis for a merchant, keyed by
// the normalized vendor name. Entries are always replaced wholesale; the
// enrichment provider's latest view wins.
type VendorAnalysis struct {
	LastUpdated        time.Time
	PracticeWeights    map[string]float64
	PracticeCategories map[string]string
	Information        map[string]string
	Citations          map[string]string
	VendorKey          string
	UnethicalPractices []string
	EthicalPractices   []string
}

var (
	vendorPunctuation = regexp.MustCompile(`[^a-z0-9 ]+`)
	vendorWhitespace  = regexp.MustCompile(`\s+`)
)

// Corporate suffixes stripped during normalization so that "Coffee Co." and
// "COFFEE CO" map to the same cache key.
var vendorSuffixes = map[string]bool{
	"inc":  true,
	"llc":  true,
	"ltd":  true,
	"co":   true,
	"corp": true,
	"plc":  true,
	"gmbh": true,
}

// NormalizeVendorName maps a raw merchant name to its cache key. The function
// is pure and deterministic: the same merchant always yields the same key
// regardless of superficial formatting differences across bank feeds.
func NormalizeVendorName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = vendorPunctuation.ReplaceAllString(key, " ")
	key = vendorWhitespace.ReplaceAllString(key, " ")
	key = strings.TrimSpace(key)

	words := strings.Fields(key)
	for len(words) > 1 && vendorSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
