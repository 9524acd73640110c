package categorize

import (
	"context"
	"strings"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// RulesProviderName identifies the keyword-rule provider.
const RulesProviderName = "rules"

// RulesProvider categorizes events with URL and keyword rules. It never
// fails, so every event it sees leaves the backlog.
type RulesProvider struct{}

func NewRulesProvider() *RulesProvider {
	return &RulesProvider{}
}

func (*RulesProvider) Name() string {
	return RulesProviderName
}

func (*RulesProvider) Categorize(_ context.Context, ev event.Event) (Result, error) {
	// Green City Partnerships pages are restoration work parties regardless
	// of title wording.
	for u := range ev.URLSet() {
		if strings.Contains(u, "seattle.greencitypartnerships.org") {
			return Result{
				Category:   event.CategoryParks,
				Rationale:  "green city partnerships url",
				Confidence: 0.95,
			}, nil
		}
	}

	title := strings.ToLower(ev.Title)
	switch {
	case strings.Contains(title, "cleanup"), strings.Contains(title, "litter"):
		return Result{
			Category:   event.CategoryLitter,
			Rationale:  "cleanup keyword in title",
			Confidence: 0.85,
		}, nil
	case strings.Contains(title, "forest restoration"),
		strings.Contains(title, "work party"),
		strings.Contains(title, "restoration"),
		strings.Contains(title, "planting"):
		return Result{
			Category:   event.CategoryParks,
			Rationale:  "restoration keyword in title",
			Confidence: 0.85,
		}, nil
	case strings.Contains(title, "concert"):
		return Result{
			Category:   event.CategoryConcert,
			Rationale:  "concert keyword in title",
			Confidence: 0.8,
		}, nil
	}

	for _, tag := range ev.Tags {
		lowered := strings.ToLower(tag)
		switch {
		case strings.Contains(lowered, "cleanup"), strings.Contains(lowered, "litter patrol"):
			return Result{
				Category:   event.CategoryLitter,
				Rationale:  "cleanup tag",
				Confidence: 0.8,
			}, nil
		case strings.Contains(lowered, "green seattle partnership"),
			strings.Contains(lowered, "volunteer/work party"):
			return Result{
				Category:   event.CategoryParks,
				Rationale:  "work party tag",
				Confidence: 0.8,
			}, nil
		}
	}

	return Result{
		Category:   event.CategoryOther,
		Rationale:  "no rule matched",
		Confidence: 0.5,
	}, nil
}
