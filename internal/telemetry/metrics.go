package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/agrodash"
)

// Metrics holds the OpenTelemetry instruments recorded by the client.
type Metrics struct {
	// API call metrics
	RequestsTotal      metric.Int64Counter
	RequestErrorsTotal metric.Int64Counter
	RequestDuration    metric.Float64Histogram

	// Session metrics
	SessionValidationsTotal metric.Int64Counter

	// Export metrics
	ExportedRowsTotal metric.Int64Counter
	ExportDuration    metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Without InitTelemetry the instruments are backed by the no-op provider.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.RequestsTotal, _ = meter.Int64Counter(
		"agrodash.api.requests.total",
		metric.WithDescription("Total number of API requests"),
		metric.WithUnit("{request}"),
	)

	m.RequestErrorsTotal, _ = meter.Int64Counter(
		"agrodash.api.requests.errors.total",
		metric.WithDescription("Total number of API requests that failed or returned a non-2xx status"),
		metric.WithUnit("{error}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"agrodash.api.requests.duration",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("ms"),
	)

	m.SessionValidationsTotal, _ = meter.Int64Counter(
		"agrodash.session.validations.total",
		metric.WithDescription("Total number of session token validations"),
		metric.WithUnit("{validation}"),
	)

	m.ExportedRowsTotal, _ = meter.Int64Counter(
		"agrodash.export.rows.total",
		metric.WithDescription("Total number of rows exported"),
		metric.WithUnit("{row}"),
	)

	m.ExportDuration, _ = meter.Float64Histogram(
		"agrodash.export.duration",
		metric.WithDescription("Duration of exports"),
		metric.WithUnit("ms"),
	)

	return m
}
