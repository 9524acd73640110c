package dedupe

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// sourcePrecedence ranks sources by listing quality. The highest-ranked
// member of a cluster becomes the representative; unknown sources sort last.
var sourcePrecedence = map[string]int{
	event.SourceSPR: 0,
	event.SourceGSP: 1,
	event.SourceSPU: 2,
	event.SourceEC:  3,
	event.SourceDND: 4,
	event.SourceFRE: 5,
	event.SourceSPF: 6,
	event.SourceMAN: 7,
}

func precedenceRank(source string) int {
	rank, ok := sourcePrecedence[source]
	if !ok {
		return len(sourcePrecedence)
	}
	return rank
}

// CanonicalSelector builds one published record per cluster.
type CanonicalSelector struct {
	newID func() string
}

func NewCanonicalSelector() *CanonicalSelector {
	return &CanonicalSelector{newID: uuid.NewString}
}

// Select builds the canonical record for one cluster. The representative's
// display fields win; gaps are filled from the remaining members in
// precedence order, and Provenance records which member supplied each filled
// field.
func (s *CanonicalSelector) Select(cluster Cluster, byKey map[string]event.Event) (event.CanonicalEvent, error) {
	if len(cluster.Members) == 0 {
		return event.CanonicalEvent{}, fmt.Errorf("empty cluster")
	}

	ordered := make([]event.Event, 0, len(cluster.Members))
	for _, key := range cluster.Members {
		ev, ok := byKey[key]
		if !ok {
			return event.CanonicalEvent{}, fmt.Errorf("cluster member %s has no event", key)
		}
		ordered = append(ordered, ev)
	}
	sortByPrecedence(ordered)

	rep := ordered[0]
	canonical := event.CanonicalEvent{
		CanonicalID:  s.newID(),
		Title:        rep.Title,
		Start:        rep.Start,
		End:          rep.End,
		Venue:        rep.Venue,
		Address:      rep.Address,
		URL:          canonicalURL(rep),
		Cost:         rep.Cost,
		Latitude:     rep.Latitude,
		Longitude:    rep.Longitude,
		Tags:         mergeTags(ordered),
		SourceEvents: append([]string(nil), cluster.Members...),
		Provenance:   map[string]string{"representative": rep.Key()},
	}

	// A date-only representative can borrow a specific time from a lower
	// precedence member, but only one listed for the same day. Shared-URL
	// evidence can merge clusters across a date discrepancy, and the
	// representative's date must not move with the borrowed time.
	if !canonical.HasTimeInfo() {
		repDay := rep.Start.UTC().Truncate(24 * time.Hour)
		for _, member := range ordered[1:] {
			if member.HasTimeInfo() && member.Start.UTC().Truncate(24*time.Hour).Equal(repDay) {
				canonical.Start = member.Start
				canonical.End = member.End
				canonical.Provenance["time"] = member.Key()
				break
			}
		}
	}

	fillGaps(&canonical, ordered)
	return canonical, nil
}

func fillGaps(canonical *event.CanonicalEvent, ordered []event.Event) {
	for _, member := range ordered[1:] {
		if canonical.Venue == nil && member.Venue != nil {
			canonical.Venue = member.Venue
			canonical.Provenance["venue"] = member.Key()
		}
		if canonical.Address == nil && member.Address != nil {
			canonical.Address = member.Address
			canonical.Provenance["address"] = member.Key()
		}
		if canonical.Cost == nil && member.Cost != nil {
			canonical.Cost = member.Cost
			canonical.Provenance["cost"] = member.Key()
		}
		if canonical.Latitude == nil && member.Latitude != nil {
			canonical.Latitude = member.Latitude
			canonical.Longitude = member.Longitude
			canonical.Provenance["coordinates"] = member.Key()
		}
	}
}

// canonicalURL prefers a representative's same_as link over its own listing
// URL. A Parks listing that links its Green City Partnerships registration
// page should publish the registration page.
func canonicalURL(rep event.Event) string {
	if rep.SameAs != nil && *rep.SameAs != "" && *rep.SameAs != rep.URL {
		return *rep.SameAs
	}
	return rep.URL
}

func sortByPrecedence(events []event.Event) {
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && lessPrecedence(events[j], events[j-1]); j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}

func lessPrecedence(a, b event.Event) bool {
	ra, rb := precedenceRank(a.Source), precedenceRank(b.Source)
	if ra != rb {
		return ra < rb
	}
	return a.Key() < b.Key()
}

func mergeTags(events []event.Event) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, ev := range events {
		for _, tag := range ev.Tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}
