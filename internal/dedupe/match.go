// Package dedupe detects cross-source duplicate listings, clusters them, and
// publishes one canonical record per cluster.
package dedupe

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/xrash/smetrics"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// Decision threshold on the match probability. Tuned for precision: a missed
// duplicate shows twice in the feed, a false merge hides a real event.
const MatchThreshold = 0.90

// Similarity cutoffs for the fuzzy comparators.
const (
	titleStrongSimilarity = 0.92
	titleFuzzySimilarity  = 0.70
	addressSimilarity     = 0.75
)

// Log-odds contributions of each comparator. The prior encodes that two
// arbitrary same-day listings are usually different events; a shared URL
// alone is enough to cross the threshold.
const (
	priorLogOdds = -3.5

	weightSharedURL    = 6.5
	weightTitleExact   = 3.0
	weightTitleStrong  = 2.25
	weightTitleFuzzy   = 1.0
	weightSameDay      = 1.75
	weightSameTime     = 2.25
	weightDateMismatch = -1.5
	weightAddress      = 1.5
	weightCategory     = 0.75
)

// Signals records which comparators fired for one pair. Kept on ScoredPair so
// match decisions can be explained after the fact.
type Signals struct {
	SharedURL     bool    `json:"shared_url"`
	TitleExact    bool    `json:"title_exact"`
	TitleJaro     float64 `json:"title_jaro"`
	SameDay       bool    `json:"same_day"`
	SameTime      bool    `json:"same_time"`
	DateMismatch  bool    `json:"date_mismatch"`
	AddressMatch  bool    `json:"address_match"`
	CategoryMatch bool    `json:"category_match"`
}

// ScoredPair is one cross-source candidate pair with its match probability.
type ScoredPair struct {
	Left        string  `json:"left"`
	Right       string  `json:"right"`
	Probability float64 `json:"probability"`
	Signals     Signals `json:"signals"`
}

// IsMatch reports whether the pair clears the decision threshold.
func (p ScoredPair) IsMatch() bool {
	return p.Probability >= MatchThreshold
}

// Engine scores candidate pairs. Candidate generation blocks on start date
// and on normalized title so the pass stays linear-ish in practice; only
// cross-source pairs are ever compared, since (source, source_id) already
// deduplicates within a source.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// ScorePairs generates and scores candidate pairs from the input events.
// Pairs below the threshold are included so callers can inspect near misses.
func (e *Engine) ScorePairs(events []event.Event) []ScoredPair {
	blocks := make(map[string][]int)
	addToBlock := func(key string, idx int) {
		blocks[key] = append(blocks[key], idx)
	}
	for i, ev := range events {
		addToBlock("d:"+ev.Start.UTC().Format("2006-01-02"), i)
		addToBlock("t:"+normalizeTitle(ev.Title), i)
	}

	seen := make(map[[2]int]struct{})
	var pairs []ScoredPair
	for _, block := range blocks {
		for a := 0; a < len(block); a++ {
			for b := a + 1; b < len(block); b++ {
				i, j := block[a], block[b]
				if i > j {
					i, j = j, i
				}
				if events[i].Source == events[j].Source {
					continue
				}
				key := [2]int{i, j}
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				pairs = append(pairs, e.Score(events[i], events[j]))
			}
		}
	}

	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].Left != pairs[b].Left {
			return pairs[a].Left < pairs[b].Left
		}
		return pairs[a].Right < pairs[b].Right
	})
	return pairs
}

// Score computes the match probability for one pair. Missing fields
// contribute nothing either way.
func (e *Engine) Score(a, b event.Event) ScoredPair {
	signals := compare(a, b)

	z := priorLogOdds
	if signals.SharedURL {
		z += weightSharedURL
	}
	switch {
	case signals.TitleExact:
		z += weightTitleExact
	case signals.TitleJaro >= titleStrongSimilarity:
		z += weightTitleStrong
	case signals.TitleJaro >= titleFuzzySimilarity:
		z += weightTitleFuzzy
	}
	if signals.SameDay {
		z += weightSameDay
	}
	if signals.SameTime {
		z += weightSameTime
	}
	if signals.DateMismatch {
		z += weightDateMismatch
	}
	if signals.AddressMatch {
		z += weightAddress
	}
	if signals.CategoryMatch {
		z += weightCategory
	}

	left, right := a.Key(), b.Key()
	if left > right {
		left, right = right, left
	}
	return ScoredPair{
		Left:        left,
		Right:       right,
		Probability: sigmoid(z),
		Signals:     signals,
	}
}

func compare(a, b event.Event) Signals {
	var s Signals

	s.SharedURL = urlSetsIntersect(a.URLSet(), b.URLSet())

	titleA, titleB := normalizeTitle(a.Title), normalizeTitle(b.Title)
	if titleA != "" && titleB != "" {
		if titleA == titleB {
			s.TitleExact = true
			s.TitleJaro = 1
		} else {
			s.TitleJaro = smetrics.JaroWinkler(titleA, titleB, 0.7, 4)
		}
	}

	sameDay := a.Start.UTC().Truncate(24*time.Hour).Equal(b.Start.UTC().Truncate(24 * time.Hour))
	s.SameDay = sameDay
	if !sameDay && !s.SharedURL {
		s.DateMismatch = true
	}
	if sameDay && a.HasTimeInfo() && b.HasTimeInfo() && a.Start.Equal(b.Start) {
		s.SameTime = true
	}

	if a.Address != nil && b.Address != nil {
		addrA := normalizeTitle(*a.Address)
		addrB := normalizeTitle(*b.Address)
		if addrA != "" && addrB != "" {
			if addrA == addrB || smetrics.JaroWinkler(addrA, addrB, 0.7, 4) >= addressSimilarity {
				s.AddressMatch = true
			}
		}
	}

	if a.Category != nil && b.Category != nil && *a.Category == *b.Category {
		s.CategoryMatch = true
	}

	return s
}

func urlSetsIntersect(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for u := range a {
		if _, ok := b[u]; ok {
			return true
		}
	}
	return false
}

// normalizeTitle lowercases and collapses whitespace for comparison.
func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
