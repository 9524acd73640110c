package httpapi

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const metricsQueryTimeout = 5 * time.Second

var (
	sourceEventsDesc = prometheus.NewDesc(
		"volunteer_source_events_total",
		"Number of stored source events.",
		nil, nil,
	)
	canonicalEventsDesc = prometheus.NewDesc(
		"volunteer_canonical_events_total",
		"Number of published canonical events.",
		nil, nil,
	)
	enrichmentDesc = prometheus.NewDesc(
		"volunteer_enrichment_events",
		"Enrichment outcomes per stream and status.",
		[]string{"kind", "status"}, nil,
	)
)

// storeCollector queries live counts on every scrape. Scrapes are infrequent
// and the queries are cheap aggregate counts.
type storeCollector struct {
	store  Store
	logger zerolog.Logger
}

func newStoreCollector(store Store, logger zerolog.Logger) *storeCollector {
	return &storeCollector{store: store, logger: logger}
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sourceEventsDesc
	ch <- canonicalEventsDesc
	ch <- enrichmentDesc
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsQueryTimeout)
	defer cancel()

	if count, err := c.store.CountSourceEvents(ctx, ""); err == nil {
		ch <- prometheus.MustNewConstMetric(sourceEventsDesc, prometheus.GaugeValue, float64(count))
	} else {
		c.logger.Warn().Err(err).Msg("metrics: count source events failed")
	}

	if count, err := c.store.CountCanonicalEvents(ctx); err == nil {
		ch <- prometheus.MustNewConstMetric(canonicalEventsDesc, prometheus.GaugeValue, float64(count))
	} else {
		c.logger.Warn().Err(err).Msg("metrics: count canonical events failed")
	}

	for _, kind := range enrichmentKinds {
		progress, err := c.store.QueryEnrichmentProgress(ctx, kind, "")
		if err != nil {
			c.logger.Warn().Err(err).Str("kind", string(kind)).Msg("metrics: enrichment progress failed")
			continue
		}
		ch <- prometheus.MustNewConstMetric(enrichmentDesc, prometheus.GaugeValue,
			float64(progress.Enriched), string(kind), "success")
		ch <- prometheus.MustNewConstMetric(enrichmentDesc, prometheus.GaugeValue,
			float64(progress.Failed), string(kind), "failed")
		ch <- prometheus.MustNewConstMetric(enrichmentDesc, prometheus.GaugeValue,
			float64(progress.Total-progress.Enriched-progress.Failed), string(kind), "pending")
	}
}
