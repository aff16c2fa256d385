package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossburn/tally/internal/common"
)

func TestParseResults_Valid(t *testing.T) {
	content := `{
		"results": [
			{
				"id": "t1",
				"unethicalPractices": ["Factory Farming"],
				"ethicalPractices": [],
				"practiceWeights": {"Factory Farming": 40},
				"practiceCategories": {"Factory Farming": "Animal Welfare"},
				"information": {"Factory Farming": "Sources from industrial farms."},
				"citations": {"Factory Farming": "https://example.com"}
			}
		]
	}`

	results, err := parseResults(content)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t1", results[0].ID)
	assert.Equal(t, []string{"Factory Farming"}, results[0].UnethicalPractices)
	assert.InDelta(t, 40.0, results[0].PracticeWeights["Factory Farming"], 0.001)
	assert.Equal(t, "Animal Welfare", results[0].PracticeCategories["Factory Farming"])
}

func TestParseResults_MarkdownFences(t *testing.T) {
	content := "```json\n{\"results\":[{\"id\":\"t1\",\"unethicalPractices\":[],\"ethicalPractices\":[],\"practiceWeights\":{}}]}\n```"

	results, err := parseResults(content)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t1", results[0].ID)
}

func TestParseResults_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "the merchant seems fine to me"},
		{"wrong shape", `{"answer": 42}`},
		{"truncated", `{"results":[{"id":"t1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResults(tt.content)
			assert.ErrorIs(t, err, common.ErrMalformedResponse)
		})
	}
}

func TestParseResults_DropsResultsWithoutID(t *testing.T) {
	content := `{"results":[
		{"id": "", "unethicalPractices": ["X"], "practiceWeights": {"X": 10}},
		{"id": "t2", "ethicalPractices": ["Fair Trade"], "practiceWeights": {"Fair Trade": 20}}
	]}`

	results, err := parseResults(content)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t2", results[0].ID)
}

func TestSanitizeResult_ClampsWeights(t *testing.T) {
	content := `{"results":[{
		"id": "t1",
		"unethicalPractices": ["Over", "Under", "Missing"],
		"practiceWeights": {"Over": 150, "Under": -20}
	}]}`

	results, err := parseResults(content)
	require.NoError(t, err)
	require.Len(t, results, 1)

	weights := results[0].PracticeWeights
	assert.InDelta(t, 100.0, weights["Over"], 0.001)
	assert.Zero(t, weights["Under"])
	// Named practice without a weight defaults to zero contribution.
	assert.Zero(t, weights["Missing"])
}

func TestSanitizeResult_DedupesPractices(t *testing.T) {
	content := `{"results":[{
		"id": "t1",
		"ethicalPractices": ["Fair Trade", "Fair Trade", "  ", "Renewable Energy"],
		"practiceWeights": {"Fair Trade": 20, "Renewable Energy": 10}
	}]}`

	results, err := parseResults(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fair Trade", "Renewable Energy"}, results[0].EthicalPractices)
}

func TestParseResults_EmptyResults(t *testing.T) {
	results, err := parseResults(`{"results": []}`)
	require.NoError(t, err)
	assert.Empty(t, results)
}
