package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EngineMetrics observes batch engine operations. Instruments come from
// the global meter provider, so without an installed SDK they are
// no-ops.
type EngineMetrics struct {
	opsTotal   metric.Int64Counter
	opsErrors  metric.Int64Counter
	opsLatency metric.Float64Histogram
}

func NewEngineMetrics() *EngineMetrics {
	meter := otel.Meter("nia-meeting-intel/core")

	opsTotal, _ := meter.Int64Counter("meetingintel.operation.total")
	opsErrors, _ := meter.Int64Counter("meetingintel.operation.errors.total")
	opsLatency, _ := meter.Float64Histogram("meetingintel.operation.duration.ms")

	return &EngineMetrics{opsTotal: opsTotal, opsErrors: opsErrors, opsLatency: opsLatency}
}

func (m *EngineMetrics) Observe(ctx context.Context, op string, start time.Time, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("engine.operation", op),
	}

	m.opsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	ms := float64(time.Since(start).Milliseconds())
	m.opsLatency.Record(ctx, ms, metric.WithAttributes(attrs...))

	if err != nil {
		m.opsErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
