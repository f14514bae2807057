package pool

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fireflycore/go-discover/pool"

// 借出结果
const (
	outcomeOK          = "ok"
	outcomeBusy        = "busy"
	outcomeExhausted   = "exhausted"
	outcomeUnavailable = "unavailable"
	outcomeClosed      = "closed"
)

// metrics 使用全局 MeterProvider，未配置时为 noop。
type metrics struct {
	borrows   metric.Int64Counter
	destroyed metric.Int64Counter
	wait      metric.Float64Histogram
	attr      attribute.KeyValue
}

func newMetrics(name string) *metrics {
	meter := otel.Meter(instrumentationName)

	m := &metrics{attr: attribute.String("pool", name)}
	m.borrows, _ = meter.Int64Counter("pool.borrows",
		metric.WithDescription("Borrow calls by outcome"))
	m.destroyed, _ = meter.Int64Counter("pool.clients.destroyed",
		metric.WithDescription("Clients destroyed by reason"))
	m.wait, _ = meter.Float64Histogram("pool.borrow.duration",
		metric.WithDescription("Time spent in Borrow"),
		metric.WithUnit("ms"))
	return m
}

func (m *metrics) borrowed(outcome string, start time.Time) {
	if m == nil {
		return
	}
	ctx := context.Background()
	opt := metric.WithAttributes(m.attr, attribute.String("outcome", outcome))
	if m.borrows != nil {
		m.borrows.Add(ctx, 1, opt)
	}
	if m.wait != nil {
		m.wait.Record(ctx, float64(time.Since(start).Microseconds())/1000, opt)
	}
}

func (m *metrics) destroy(reason string) {
	if m == nil || m.destroyed == nil {
		return
	}
	m.destroyed.Add(context.Background(), 1, metric.WithAttributes(m.attr, attribute.String("reason", reason)))
}
