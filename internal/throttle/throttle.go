// Package throttle enforces a minimum interval between outbound requests to
// the same domain, so detail-page fetching stays polite to the sites it
// scrapes. Different domains never block each other.
package throttle

import (
	"time"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// DefaultInterval is the minimum spacing between same-domain requests.
const DefaultInterval = 2 * time.Second

// Throttle tracks the last request time per domain. It is an explicitly
// instantiated component, not process-global state, so tests can construct an
// isolated instance with a fast clock. It is not safe for concurrent use;
// enrichment runs fetch one page at a time.
type Throttle struct {
	interval time.Duration
	last     map[string]time.Time

	// Overridable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New returns a throttle with the given minimum same-domain interval.
// A non-positive interval falls back to DefaultInterval.
func New(interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Throttle{
		interval: interval,
		last:     make(map[string]time.Time),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait blocks until a request to rawURL's domain is allowed, then records the
// request time. It returns an error only when no domain can be extracted.
func (t *Throttle) Wait(rawURL string) error {
	domain, err := event.Domain(rawURL)
	if err != nil {
		return err
	}

	if last, ok := t.last[domain]; ok {
		elapsed := t.now().Sub(last)
		if elapsed < t.interval {
			t.sleep(t.interval - elapsed)
		}
	}

	t.last[domain] = t.now()
	return nil
}
