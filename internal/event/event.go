// Package event defines the domain model shared by extractors, enrichment,
// and deduplication: one Event per (source, source_id) listing plus the
// CanonicalEvent produced by merging duplicates across sources.
package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Source codes are short, stable identifiers for each listing source.
const (
	SourceSPR = "SPR"  // Seattle Parks & Recreation
	SourceGSP = "GSP"  // Green Seattle Partnership
	SourceSPU = "SPU"  // Seattle Public Utilities cleanups
	SourceEC  = "EC"   // EarthCorps
	SourceDND = "DNDA" // Delridge Neighborhoods Development Association
	SourceFRE = "FRE"  // Fremont Neighbor blog
	SourceSPF = "SPF"  // Seattle Parks Foundation
	SourceMAN = "MAN"  // manually curated recurring events
)

// Category is an enrichment-assigned event category.
type Category string

const (
	CategoryParks   Category = "volunteer/parks"
	CategoryLitter  Category = "volunteer/litter"
	CategorySocial  Category = "social_event"
	CategoryConcert Category = "concert"
	CategoryOther   Category = "other"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryParks, CategoryLitter, CategorySocial, CategoryConcert, CategoryOther:
		return true
	}
	return false
}

// Event is one listing as seen from one source. (Source, SourceID) is globally
// unique and stable across re-fetches. Start and End are UTC instants; by
// convention Start == End marks a date-only listing whose time of day is
// unknown.
type Event struct {
	Source    string
	SourceID  string
	Title     string
	Start     time.Time
	End       time.Time
	Venue     *string
	Address   *string
	URL       string
	Cost      *string
	Latitude  *float64
	Longitude *float64
	Tags      []string
	// SameAs links to the same event's canonical URL on another source, when
	// the raw listing carries such a link.
	SameAs *string
	// SourcePayload is the opaque source-specific structured payload.
	SourcePayload json.RawMessage

	// Joined from enrichment tables when present; never persisted on the
	// events row itself.
	EnrichmentURL *string
	Category      *Category
}

// Key returns the stable "source:source_id" identity string.
func (e Event) Key() string {
	return e.Source + ":" + e.SourceID
}

// HasTimeInfo reports whether the event carries a real time of day.
// Zero-duration events are date-only.
func (e Event) HasTimeInfo() bool {
	return !e.Start.Equal(e.End)
}

// IsDateOnly reports whether the time of day is unknown.
func (e Event) IsDateOnly() bool {
	return !e.HasTimeInfo()
}

// URLSet returns the normalized set of URLs known to identify this event:
// the listing URL, an explicit same_as link, and any enrichment-derived
// registration URL. Cross-source intersection of these sets is the strongest
// duplicate signal.
func (e Event) URLSet() map[string]struct{} {
	set := make(map[string]struct{}, 3)
	for _, raw := range []string{e.URL, derefString(e.SameAs), derefString(e.EnrichmentURL)} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if normalized, err := NormalizeURL(raw); err == nil {
			set[normalized] = struct{}{}
		}
	}
	return set
}

// Validate checks the invariants a record must satisfy before it may enter
// matching. A fabricated default time is never substituted for a missing one.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Source) == "" {
		return fmt.Errorf("event is missing source")
	}
	if strings.TrimSpace(e.SourceID) == "" {
		return fmt.Errorf("event %s is missing source_id", e.Source)
	}
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("event %s is missing title", e.Key())
	}
	if strings.TrimSpace(e.URL) == "" {
		return fmt.Errorf("event %s is missing url", e.Key())
	}
	if e.Start.IsZero() {
		return fmt.Errorf("event %s has no parseable start time", e.Key())
	}
	if e.End.Before(e.Start) {
		return fmt.Errorf("event %s ends before it starts", e.Key())
	}
	return nil
}

// CanonicalEvent is the single representative published for a cluster of
// matched source events.
type CanonicalEvent struct {
	CanonicalID string
	Title       string
	Start       time.Time
	End         time.Time
	Venue       *string
	Address     *string
	URL         string
	Cost        *string
	Latitude    *float64
	Longitude   *float64
	Tags        []string
	// SourceEvents lists the "source:source_id" keys of every cluster member,
	// representative included.
	SourceEvents []string
	// Provenance records which member contributed each merged display field.
	Provenance map[string]string
}

// HasTimeInfo mirrors Event.HasTimeInfo for the merged record.
func (c CanonicalEvent) HasTimeInfo() bool {
	return !c.Start.Equal(c.End)
}

// SplitKey parses a "source:source_id" key back into its parts.
func SplitKey(key string) (source, sourceID string, err error) {
	source, sourceID, ok := strings.Cut(key, ":")
	if !ok || source == "" || sourceID == "" {
		return "", "", fmt.Errorf("malformed event key %q", key)
	}
	return source, sourceID, nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
