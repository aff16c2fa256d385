package enrich

import "context"

// Client abstracts a raw completion API. Implementations return the model's
// text content; parsing and validation happen in the Enricher.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
