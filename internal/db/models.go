package db

import (
	"encoding/json"
	"time"
)

// SourceEvent maps volunteer.events: one listing as seen from one source.
// (source, source_id) is the stable identity; listing fetches upsert in place
// and never touch the enrichment tables.
type SourceEvent struct {
	Source        string          `gorm:"column:source;type:text;primaryKey"`
	SourceID      string          `gorm:"column:source_id;type:text;primaryKey"`
	Title         string          `gorm:"column:title;type:text;not null"`
	StartAt       time.Time       `gorm:"column:start_at;type:timestamptz;not null"`
	EndAt         time.Time       `gorm:"column:end_at;type:timestamptz;not null"`
	Venue         *string         `gorm:"column:venue;type:text"`
	Address       *string         `gorm:"column:address;type:text"`
	URL           string          `gorm:"column:url;type:text;not null"`
	Cost          *string         `gorm:"column:cost;type:text"`
	Latitude      *float64        `gorm:"column:latitude;type:double precision"`
	Longitude     *float64        `gorm:"column:longitude;type:double precision"`
	Tags          *string         `gorm:"column:tags;type:text"`
	SameAs        *string         `gorm:"column:same_as;type:text"`
	SourcePayload json.RawMessage `gorm:"column:source_payload;type:jsonb"`
	CreatedAt     time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (SourceEvent) TableName() string { return "volunteer.events" }

// DetailPageEnrichment maps volunteer.detail_page_enrichments. One row per
// (source, source_id) once the detail page has been attempted; only the
// enrichment subsystem writes here, so nightly listing re-fetches can never
// erase enrichment progress.
type DetailPageEnrichment struct {
	Source          string    `gorm:"column:source;type:text;primaryKey"`
	SourceID        string    `gorm:"column:source_id;type:text;primaryKey"`
	DetailPageURL   string    `gorm:"column:detail_page_url;type:text;not null"`
	RegistrationURL *string   `gorm:"column:registration_url;type:text"`
	Description     *string   `gorm:"column:description;type:text"`
	ContactName     *string   `gorm:"column:contact_name;type:text"`
	ContactEmail    *string   `gorm:"column:contact_email;type:text"`
	Status          string    `gorm:"column:status;type:text;not null"`
	ErrorMessage    *string   `gorm:"column:error_message;type:text"`
	FetchedAt       time.Time `gorm:"column:fetched_at;type:timestamptz;not null;default:now()"`
}

func (DetailPageEnrichment) TableName() string { return "volunteer.detail_page_enrichments" }

// CategoryEnrichment maps volunteer.category_enrichments, the second
// enrichment stream. Rows here are independent of detail-page enrichment.
type CategoryEnrichment struct {
	Source       string    `gorm:"column:source;type:text;primaryKey"`
	SourceID     string    `gorm:"column:source_id;type:text;primaryKey"`
	Category     *string   `gorm:"column:category;type:text"`
	Rationale    *string   `gorm:"column:rationale;type:text"`
	Confidence   *float64  `gorm:"column:confidence;type:double precision"`
	Provider     string    `gorm:"column:provider;type:text;not null"`
	Status       string    `gorm:"column:status;type:text;not null"`
	ErrorMessage *string   `gorm:"column:error_message;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (CategoryEnrichment) TableName() string { return "volunteer.category_enrichments" }

// CanonicalEventRow maps volunteer.canonical_events, the published output.
// Recomputed wholesale by every dedupe run.
type CanonicalEventRow struct {
	CanonicalID string          `gorm:"column:canonical_id;type:uuid;primaryKey"`
	Title       string          `gorm:"column:title;type:text;not null"`
	StartAt     time.Time       `gorm:"column:start_at;type:timestamptz;not null"`
	EndAt       time.Time       `gorm:"column:end_at;type:timestamptz;not null"`
	Venue       *string         `gorm:"column:venue;type:text"`
	Address     *string         `gorm:"column:address;type:text"`
	URL         string          `gorm:"column:url;type:text;not null"`
	Cost        *string         `gorm:"column:cost;type:text"`
	Latitude    *float64        `gorm:"column:latitude;type:double precision"`
	Longitude   *float64        `gorm:"column:longitude;type:double precision"`
	Tags        *string         `gorm:"column:tags;type:text"`
	SourceCount int             `gorm:"column:source_count;type:integer;not null;default:1"`
	Provenance  json.RawMessage `gorm:"column:provenance;type:jsonb"`
	ComputedAt  time.Time       `gorm:"column:computed_at;type:timestamptz;not null;default:now()"`
}

func (CanonicalEventRow) TableName() string { return "volunteer.canonical_events" }

// EventGroupMembership maps volunteer.event_group_memberships: the cluster
// partition assigning every source event to exactly one canonical event.
type EventGroupMembership struct {
	CanonicalID string `gorm:"column:canonical_id;type:uuid;primaryKey"`
	Source      string `gorm:"column:source;type:text;primaryKey"`
	SourceID    string `gorm:"column:source_id;type:text;primaryKey"`
}

func (EventGroupMembership) TableName() string { return "volunteer.event_group_memberships" }

// PipelineRun maps volunteer.pipeline_runs: one append-only row per stage
// invocation (per source where the stage is source-scoped).
type PipelineRun struct {
	RunID        int64     `gorm:"column:run_id;primaryKey;autoIncrement"`
	RunUUID      string    `gorm:"column:run_uuid;type:uuid;not null;unique"`
	Stage        string    `gorm:"column:stage;type:text;not null"`
	Source       *string   `gorm:"column:source;type:text"`
	RunAt        time.Time `gorm:"column:run_at;type:timestamptz;not null;default:now()"`
	Status       string    `gorm:"column:status;type:text;not null"`
	Attempted    int       `gorm:"column:attempted;type:integer;not null;default:0"`
	Succeeded    int       `gorm:"column:succeeded;type:integer;not null;default:0"`
	Failed       int       `gorm:"column:failed;type:integer;not null;default:0"`
	ErrorMessage *string   `gorm:"column:error_message;type:text"`
}

func (PipelineRun) TableName() string { return "volunteer.pipeline_runs" }

func autoMigrateModels() []any {
	return []any{
		&SourceEvent{},
		&DetailPageEnrichment{},
		&CategoryEnrichment{},
		&CanonicalEventRow{},
		&EventGroupMembership{},
		&PipelineRun{},
	}
}
