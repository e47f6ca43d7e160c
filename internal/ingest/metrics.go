package ingest

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type syncMetrics struct {
	fetches  metric.Int64Counter
	failures metric.Int64Counter
	runs     metric.Int64Counter
}

func newSyncMetrics(mp metric.MeterProvider) *syncMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter("gamecatalog/ingest")
	m := &syncMetrics{}
	m.fetches, _ = meter.Int64Counter("gamecatalog_ingest_fetches",
		metric.WithDescription("Games fetched, by outcome"),
		metric.WithUnit("{game}"))
	m.failures, _ = meter.Int64Counter("gamecatalog_ingest_failures",
		metric.WithDescription("Games whose fetch or persistence failed"),
		metric.WithUnit("{game}"))
	m.runs, _ = meter.Int64Counter("gamecatalog_ingest_runs",
		metric.WithDescription("Sync passes, by trigger and final status"),
		metric.WithUnit("{run}"))
	return m
}

func (m *syncMetrics) fetched(ctx context.Context, o Outcome) {
	if m == nil || m.fetches == nil {
		return
	}
	m.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(o))))
}

func (m *syncMetrics) failed(ctx context.Context) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.Add(ctx, 1)
}

func (m *syncMetrics) finished(ctx context.Context, run *Run) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("trigger", run.Trigger),
		attribute.String("status", run.Status),
	))
}
