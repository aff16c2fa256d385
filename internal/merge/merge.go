// Package merge reconciles transaction lists fetched at different times into
// a single list without duplicates, preserving analysis results.
package merge

import "github.com/mossburn/tally/internal/model"

// Transactions merges two transaction lists into one containing every
// distinct identity from both inputs at most once. When both lists contain
// the same identity, the analyzed version wins; if both or neither are
// analyzed, incoming wins as the more recent observation. Result order is
// base's insertion order followed by new entries from incoming.
//
// The function is idempotent (merge(X, X) == X) and ratchets analysis state:
// an identity once analyzed can never be reverted to unanalyzed by a later
// merge.
func Transactions(base, incoming []model.Transaction) []model.Transaction {
	result := make([]model.Transaction, 0, len(base)+len(incoming))
	index := make(map[string]int, len(base))

	for _, tx := range base {
		id := tx.Identity()
		if pos, seen := index[id]; seen {
			result[pos] = pick(result[pos], tx)
			continue
		}
		index[id] = len(result)
		result = append(result, tx)
	}

	for _, tx := range incoming {
		id := tx.Identity()
		if pos, seen := index[id]; seen {
			result[pos] = pick(result[pos], tx)
			continue
		}
		index[id] = len(result)
		result = append(result, tx)
	}

	return result
}

// pick resolves two observations of the same identity. Analyzed data is never
// discarded in favor of unanalyzed data.
func pick(existing, candidate model.Transaction) model.Transaction {
	if existing.Analyzed && !candidate.Analyzed {
		return existing
	}
	return candidate
}
