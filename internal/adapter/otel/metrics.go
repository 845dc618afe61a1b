package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "taskdock"

// Metrics holds all TaskDock metric instruments.
type Metrics struct {
	RendersStarted   metric.Int64Counter
	RendersSucceeded metric.Int64Counter
	RendersFailed    metric.Int64Counter
	RendersDeduped   metric.Int64Counter
	RenderDuration   metric.Float64Histogram
	SandboxRejects   metric.Int64Counter
	PreviewRequests  metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RendersStarted, err = meter.Int64Counter("taskdock.renders.started",
		metric.WithDescription("Number of PDF renders started"))
	if err != nil {
		return nil, err
	}

	m.RendersSucceeded, err = meter.Int64Counter("taskdock.renders.succeeded",
		metric.WithDescription("Number of PDF renders that produced a deliverable"))
	if err != nil {
		return nil, err
	}

	m.RendersFailed, err = meter.Int64Counter("taskdock.renders.failed",
		metric.WithDescription("Number of PDF renders that failed"))
	if err != nil {
		return nil, err
	}

	m.RendersDeduped, err = meter.Int64Counter("taskdock.renders.deduped",
		metric.WithDescription("Number of renders whose record already existed"))
	if err != nil {
		return nil, err
	}

	m.RenderDuration, err = meter.Float64Histogram("taskdock.render.duration_seconds",
		metric.WithDescription("Render pipeline duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.SandboxRejects, err = meter.Int64Counter("taskdock.sandbox.rejects",
		metric.WithDescription("Paths rejected by the sandbox containment check"))
	if err != nil {
		return nil, err
	}

	m.PreviewRequests, err = meter.Int64Counter("taskdock.previews",
		metric.WithDescription("Preview and download requests served"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
