package enrich

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mossburn/tally/internal/service"
)

const systemPrompt = `You are an ethical-impact analyst for consumer purchases. ` +
	`You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, ` +
	`markdown formatting, or commentary before or after the JSON. ` +
	`Start your response directly with { and end with }.`

// promptStub is the wire form of a transaction sent to the provider.
type promptStub struct {
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	MerchantName string   `json:"merchantName"`
	Categories   []string `json:"categories,omitempty"`
	Amount       float64  `json:"amount"`
}

// buildPrompt renders the single batched analysis request. Batching is a hard
// requirement: the provider is costly and rate-limited, so all stubs go in one
// call.
func buildPrompt(stubs []service.TransactionStub) (string, error) {
	wire := make([]promptStub, len(stubs))
	for i, stub := range stubs {
		wire[i] = promptStub{
			ID:           stub.ID,
			Date:         stub.Date.Format("2006-01-02"),
			MerchantName: stub.MerchantName,
			Categories:   stub.Categories,
			Amount:       stub.Amount,
		}
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transaction stubs: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analyze the ethical impact of each of the following transactions.\n\n")
	b.WriteString("Transactions:\n")
	b.Write(payload)
	b.WriteString("\n\nFor every transaction, identify the merchant's unethical and ethical business practices. ")
	b.WriteString("Weight each practice as a percentage (0-100) of the transaction amount attributable to it. ")
	b.WriteString("Assign each practice a category, a short explanation, and a citation URL where available.\n\n")
	b.WriteString(`Respond with JSON of the shape:
{
  "results": [
    {
      "id": "<echo the transaction id exactly>",
      "unethicalPractices": ["Practice Name"],
      "ethicalPractices": ["Practice Name"],
      "practiceWeights": {"Practice Name": 40},
      "practiceCategories": {"Practice Name": "Category"},
      "information": {"Practice Name": "One-sentence explanation"},
      "citations": {"Practice Name": "https://example.com/source"}
    }
  ]
}

Every result MUST echo the caller's id unchanged. Omit transactions you cannot analyze rather than guessing.`)

	return b.String(), nil
}
