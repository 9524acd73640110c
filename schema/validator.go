// Package schema validates the manual-events configuration file against its
// JSON schema before any extraction runs.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed manual_events.schema.json
var manualEventsSchemaJSON string

// ManualEventDefinition is one manually curated recurring event.
type ManualEventDefinition struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      *string  `json:"description,omitempty"`
	RecurringPattern string   `json:"recurring_pattern"`
	StartTime        *string  `json:"start_time,omitempty"`
	EndTime          *string  `json:"end_time,omitempty"`
	Venue            *string  `json:"venue,omitempty"`
	Address          *string  `json:"address,omitempty"`
	URL              string   `json:"url"`
	Cost             *string  `json:"cost,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// ManualEventsConfig is the manual-events file structure.
type ManualEventsConfig struct {
	RecurringEvents []ManualEventDefinition `json:"recurring_events"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateManualEvents parses and validates the manual-events payload.
func ValidateManualEvents(payload json.RawMessage) (*ManualEventsConfig, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode manual events JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize manual events JSON: %w", err)
	}

	var cfg ManualEventsConfig
	if err := json.Unmarshal(normalized, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal manual events: %w", err)
	}

	if err := validateSemantics(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("manual_events.schema.json", strings.NewReader(manualEventsSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("manual_events.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(payload json.RawMessage) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("trailing data after JSON document")
	}
	if _, err := decoder.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return value, nil
}

func validateSemantics(cfg *ManualEventsConfig) error {
	seen := make(map[string]struct{}, len(cfg.RecurringEvents))
	for _, def := range cfg.RecurringEvents {
		if _, dup := seen[def.ID]; dup {
			return fmt.Errorf("duplicate manual event id %q", def.ID)
		}
		seen[def.ID] = struct{}{}

		hasStart := def.StartTime != nil && strings.TrimSpace(*def.StartTime) != ""
		hasEnd := def.EndTime != nil && strings.TrimSpace(*def.EndTime) != ""
		if hasEnd && !hasStart {
			return fmt.Errorf("manual event %q has end_time without start_time", def.ID)
		}
	}
	return nil
}
