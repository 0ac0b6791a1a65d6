package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "promptarena"

// Metrics holds all Prompt Arena metric instruments.
type Metrics struct {
	RunsStarted    metric.Int64Counter
	RunsCompleted  metric.Int64Counter
	RunsFailed     metric.Int64Counter
	VariantLatency metric.Float64Histogram
	ScoreTotal     metric.Float64Histogram
}

// NewMetrics creates all metric instruments against the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter("promptarena.runs.started",
		metric.WithDescription("Number of runs started"))
	if err != nil {
		return nil, err
	}

	m.RunsCompleted, err = meter.Int64Counter("promptarena.runs.completed",
		metric.WithDescription("Number of runs completed"))
	if err != nil {
		return nil, err
	}

	m.RunsFailed, err = meter.Int64Counter("promptarena.runs.failed",
		metric.WithDescription("Number of runs that ended in error"))
	if err != nil {
		return nil, err
	}

	m.VariantLatency, err = meter.Float64Histogram("promptarena.variant.latency_ms",
		metric.WithDescription("Provider latency per variant in milliseconds"))
	if err != nil {
		return nil, err
	}

	m.ScoreTotal, err = meter.Float64Histogram("promptarena.variant.score_total",
		metric.WithDescription("Weighted total score per variant"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
