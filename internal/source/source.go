// Package source defines the extractor contract for event listing sources and
// the registry the pipeline iterates over.
package source

import (
	"context"
	"fmt"
	"sort"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// Extractor produces the current set of listings from one source. Extract
// must return every event currently visible on the source; the store layer
// reconciles the result against prior fetches.
type Extractor interface {
	Source() string
	Extract(ctx context.Context) ([]event.Event, error)
}

// Registry holds the configured extractors keyed by source code.
type Registry struct {
	extractors map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// Register adds an extractor. Registering the same source twice is a
// programming error.
func (r *Registry) Register(e Extractor) error {
	code := e.Source()
	if _, exists := r.extractors[code]; exists {
		return fmt.Errorf("extractor for source %q already registered", code)
	}
	r.extractors[code] = e
	return nil
}

// Get returns the extractor for a source code.
func (r *Registry) Get(code string) (Extractor, error) {
	e, ok := r.extractors[code]
	if !ok {
		return nil, fmt.Errorf("no extractor registered for source %q", code)
	}
	return e, nil
}

// Sources lists the registered source codes in stable order.
func (r *Registry) Sources() []string {
	codes := make([]string, 0, len(r.extractors))
	for code := range r.extractors {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
