package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
	"github.com/ktrnka/seattle-outdoor-volunteering/schema"
)

// defaultHorizon is how far ahead recurring manual events are expanded into
// dated occurrences.
const defaultHorizon = 26 * 7 * 24 * time.Hour

// defaultDuration is assumed when a manual event has a start time but no end
// time.
const defaultDuration = 2 * time.Hour

// ManualExtractor expands the curated recurring-events file into dated
// occurrences. All times in the file are Seattle local.
type ManualExtractor struct {
	path     string
	location *time.Location
	horizon  time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewManualExtractor(path string, logger zerolog.Logger) (*ManualExtractor, error) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return nil, fmt.Errorf("load Seattle timezone: %w", err)
	}
	return &ManualExtractor{
		path:     path,
		location: loc,
		horizon:  defaultHorizon,
		now:      time.Now,
		logger:   logger,
	}, nil
}

func (m *ManualExtractor) Source() string {
	return event.SourceMAN
}

// Extract reads and validates the manual-events file, then expands each
// recurring pattern into occurrences from today through the horizon.
func (m *ManualExtractor) Extract(ctx context.Context) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("read manual events file: %w", err)
	}

	cfg, err := schema.ValidateManualEvents(payload)
	if err != nil {
		return nil, fmt.Errorf("validate manual events file: %w", err)
	}

	today := m.now().In(m.location)
	windowStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, m.location)
	windowEnd := windowStart.Add(m.horizon)

	var events []event.Event
	for _, def := range cfg.RecurringEvents {
		occurrences, err := expandPattern(def.RecurringPattern, windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("manual event %q: %w", def.ID, err)
		}
		for _, day := range occurrences {
			ev, err := m.buildOccurrence(def, day)
			if err != nil {
				return nil, fmt.Errorf("manual event %q: %w", def.ID, err)
			}
			events = append(events, ev)
		}
	}

	m.logger.Debug().
		Int("definitions", len(cfg.RecurringEvents)).
		Int("occurrences", len(events)).
		Msg("expanded manual events")

	return events, nil
}

func (m *ManualExtractor) buildOccurrence(def schema.ManualEventDefinition, day time.Time) (event.Event, error) {
	start := day
	end := day
	if def.StartTime != nil {
		t, err := parseClock(*def.StartTime)
		if err != nil {
			return event.Event{}, fmt.Errorf("start_time: %w", err)
		}
		start = day.Add(t)
		end = start.Add(defaultDuration)
		if def.EndTime != nil {
			et, err := parseClock(*def.EndTime)
			if err != nil {
				return event.Event{}, fmt.Errorf("end_time: %w", err)
			}
			if et > t {
				end = day.Add(et)
			}
		}
	}

	payload, err := json.Marshal(def)
	if err != nil {
		return event.Event{}, fmt.Errorf("marshal definition: %w", err)
	}

	return event.Event{
		Source:        event.SourceMAN,
		SourceID:      fmt.Sprintf("%s-%s", def.ID, day.Format("2006-01-02")),
		Title:         def.Title,
		Start:         start.UTC(),
		End:           end.UTC(),
		Venue:         def.Venue,
		Address:       def.Address,
		URL:           def.URL,
		Cost:          def.Cost,
		Tags:          def.Tags,
		SourcePayload: payload,
	}, nil
}

// parseClock parses an "HH:MM" local clock time into an offset from midnight.
func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", value)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

var patternWeekdays = map[string]struct {
	weekday time.Weekday
	ordinal int
}{
	"first_saturday":  {time.Saturday, 1},
	"second_saturday": {time.Saturday, 2},
	"third_saturday":  {time.Saturday, 3},
	"fourth_saturday": {time.Saturday, 4},
	"first_sunday":    {time.Sunday, 1},
	"second_sunday":   {time.Sunday, 2},
	"third_sunday":    {time.Sunday, 3},
	"fourth_sunday":   {time.Sunday, 4},
}

// expandPattern returns the local-midnight dates matching the pattern within
// [windowStart, windowEnd).
func expandPattern(pattern string, windowStart, windowEnd time.Time) ([]time.Time, error) {
	spec, ok := patternWeekdays[pattern]
	if !ok {
		return nil, fmt.Errorf("unknown recurring pattern %q", pattern)
	}

	var dates []time.Time
	month := time.Date(windowStart.Year(), windowStart.Month(), 1, 0, 0, 0, 0, windowStart.Location())
	for !month.After(windowEnd) {
		day := nthWeekday(month, spec.weekday, spec.ordinal)
		if !day.Before(windowStart) && day.Before(windowEnd) {
			dates = append(dates, day)
		}
		month = month.AddDate(0, 1, 0)
	}
	return dates, nil
}

// nthWeekday returns the nth given weekday of the month containing firstOfMonth.
func nthWeekday(firstOfMonth time.Time, weekday time.Weekday, n int) time.Time {
	offset := (int(weekday) - int(firstOfMonth.Weekday()) + 7) % 7
	return firstOfMonth.AddDate(0, 0, offset+(n-1)*7)
}
