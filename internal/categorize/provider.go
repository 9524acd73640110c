// Package categorize assigns a category to each source event through
// pluggable providers, persisting results as an append-only enrichment
// stream.
package categorize

import (
	"context"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// Result is one provider's categorization of one event.
type Result struct {
	Category   event.Category
	Rationale  string
	Confidence float64
}

// Provider categorizes a single event. Implementations must be safe for
// sequential reuse across a batch.
type Provider interface {
	Name() string
	Categorize(ctx context.Context, ev event.Event) (Result, error)
}
