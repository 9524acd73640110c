package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

const validPayload = `{
	"recurring_events": [
		{
			"id": "ballard-litter-patrol",
			"title": "Ballard Litter Patrol",
			"recurring_pattern": "second_saturday",
			"start_time": "10:00",
			"end_time": "12:00",
			"venue": "Ballard Commons Park",
			"url": "https://example.org/ballard-litter-patrol",
			"tags": ["litter patrol"]
		}
	]
}`

func TestValidateManualEvents(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateManualEvents(json.RawMessage(validPayload))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(cfg.RecurringEvents) != 1 {
		t.Fatalf("unexpected event count: %d", len(cfg.RecurringEvents))
	}

	def := cfg.RecurringEvents[0]
	if def.ID != "ballard-litter-patrol" {
		t.Errorf("unexpected id: %q", def.ID)
	}
	if def.RecurringPattern != "second_saturday" {
		t.Errorf("unexpected pattern: %q", def.RecurringPattern)
	}
	if def.StartTime == nil || *def.StartTime != "10:00" {
		t.Errorf("unexpected start_time: %v", def.StartTime)
	}
}

func TestValidateManualEventsRejectsUnknownPattern(t *testing.T) {
	t.Parallel()

	payload := strings.Replace(validPayload, "second_saturday", "every_day", 1)
	if _, err := ValidateManualEvents(json.RawMessage(payload)); err == nil {
		t.Fatal("expected error for unknown recurring pattern")
	}
}

func TestValidateManualEventsRejectsMissingURL(t *testing.T) {
	t.Parallel()

	payload := `{"recurring_events": [{"id": "x", "title": "X", "recurring_pattern": "first_sunday"}]}`
	if _, err := ValidateManualEvents(json.RawMessage(payload)); err == nil {
		t.Fatal("expected error for missing url")
	}
}

func TestValidateManualEventsRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	payload := `{
		"recurring_events": [
			{"id": "dup", "title": "A", "recurring_pattern": "first_sunday", "url": "https://example.org/a"},
			{"id": "dup", "title": "B", "recurring_pattern": "third_saturday", "url": "https://example.org/b"}
		]
	}`
	if _, err := ValidateManualEvents(json.RawMessage(payload)); err == nil {
		t.Fatal("expected error for duplicate ids")
	}
}

func TestValidateManualEventsRejectsEndWithoutStart(t *testing.T) {
	t.Parallel()

	payload := `{
		"recurring_events": [
			{"id": "x", "title": "X", "recurring_pattern": "first_sunday", "url": "https://example.org/x", "end_time": "12:00"}
		]
	}`
	if _, err := ValidateManualEvents(json.RawMessage(payload)); err == nil {
		t.Fatal("expected error for end_time without start_time")
	}
}
