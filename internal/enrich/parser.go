package enrich

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mossburn/tally/internal/common"
	"github.com/mossburn/tally/internal/service"
)

// wireResult mirrors the provider's JSON schema for a single transaction.
type wireResult struct {
	PracticeWeights    map[string]float64 `json:"practiceWeights"`
	PracticeCategories map[string]string  `json:"practiceCategories"`
	Information        map[string]string  `json:"information"`
	Citations          map[string]string  `json:"citations"`
	ID                 string             `json:"id"`
	UnethicalPractices []string           `json:"unethicalPractices"`
	EthicalPractices   []string           `json:"ethicalPractices"`
}

type wireResponse struct {
	Results []wireResult `json:"results"`
}

// parseResults validates and converts the provider's raw content into typed,
// fully-defaulted analysis results. Raw untyped maps never leave this
// boundary. A response that is not valid JSON of the expected shape is a
// malformed-response error; individual results without an echoed id are
// dropped, since they cannot be matched back safely.
func parseResults(content string) ([]service.AnalysisResult, error) {
	cleaned := stripCodeFences(content)

	var resp wireResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	if resp.Results == nil {
		return nil, fmt.Errorf("%w: missing results field", common.ErrMalformedResponse)
	}

	results := make([]service.AnalysisResult, 0, len(resp.Results))
	for _, raw := range resp.Results {
		if strings.TrimSpace(raw.ID) == "" {
			continue
		}
		results = append(results, sanitizeResult(raw))
	}
	return results, nil
}

// sanitizeResult clamps every field to a safe default so a single bad value
// never corrupts downstream aggregates.
func sanitizeResult(raw wireResult) service.AnalysisResult {
	result := service.AnalysisResult{
		ID:                 raw.ID,
		UnethicalPractices: dedupe(raw.UnethicalPractices),
		EthicalPractices:   dedupe(raw.EthicalPractices),
		PracticeCategories: raw.PracticeCategories,
		Information:        raw.Information,
		Citations:          raw.Citations,
		PracticeWeights:    make(map[string]float64),
	}

	for practice, weight := range raw.PracticeWeights {
		result.PracticeWeights[practice] = clampWeight(weight)
	}

	// Every named practice must carry a weight; default missing ones to zero
	// contribution.
	for _, practice := range result.UnethicalPractices {
		if _, ok := result.PracticeWeights[practice]; !ok {
			result.PracticeWeights[practice] = 0
		}
	}
	for _, practice := range result.EthicalPractices {
		if _, ok := result.PracticeWeights[practice]; !ok {
			result.PracticeWeights[practice] = 0
		}
	}

	return result
}

func clampWeight(weight float64) float64 {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return 0
	}
	if weight > 100 {
		return 100
	}
	return weight
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// stripCodeFences removes markdown code fences the model sometimes wraps
// around its JSON despite instructions.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
