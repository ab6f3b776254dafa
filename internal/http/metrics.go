package http

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/wosledon/vitanote/internal/http"

// HTTPMetrics holds all HTTP-related metrics.
type HTTPMetrics struct {
	meter          metric.Meter
	logger         *zap.Logger
	requestsTotal  metric.Int64Counter
	requestDur     metric.Float64Histogram
	responseSize   metric.Int64Histogram
	activeRequests metric.Int64UpDownCounter
}

// NewHTTPMetrics creates a new HTTPMetrics instance on the global meter
// provider.
func NewHTTPMetrics(logger *zap.Logger) *HTTPMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &HTTPMetrics{
		meter:  otel.Meter(httpInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *HTTPMetrics) init() {
	var err error

	m.requestsTotal, err = m.meter.Int64Counter(
		"vitanote.http.requests_total",
		metric.WithDescription("Total HTTP requests labeled by method, route and status code"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create requests counter", zap.Error(err))
	}

	m.requestDur, err = m.meter.Float64Histogram(
		"vitanote.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds, labeled by method, route and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.responseSize, err = m.meter.Int64Histogram(
		"vitanote.http.response_size_bytes",
		metric.WithDescription("HTTP response body size in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(100, 500, 1000, 5000, 10000, 50000, 100000, 500000),
	)
	if err != nil {
		m.logger.Warn("failed to create response size histogram", zap.Error(err))
	}

	m.activeRequests, err = m.meter.Int64UpDownCounter(
		"vitanote.http.active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create active requests gauge", zap.Error(err))
	}
}

// MetricsMiddleware returns an Echo middleware that records HTTP metrics.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			ctx := req.Context()

			if m.activeRequests != nil {
				m.activeRequests.Add(ctx, 1)
			}

			err := next(c)
			if err != nil {
				// Resolve the final status before recording.
				c.Error(err)
				err = nil
			}

			attrs := metric.WithAttributes(
				attribute.String("method", req.Method),
				attribute.String("endpoint", normalizePath(c.Path())),
				attribute.Int("status", c.Response().Status),
			)
			if m.requestsTotal != nil {
				m.requestsTotal.Add(ctx, 1, attrs)
			}
			if m.requestDur != nil {
				m.requestDur.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			if m.responseSize != nil {
				m.responseSize.Record(ctx, c.Response().Size, attrs)
			}
			if m.activeRequests != nil {
				m.activeRequests.Add(ctx, -1)
			}
			return err
		}
	}
}

// normalizePath keeps metric cardinality bounded. Echo reports the route
// pattern (/api/v1/glucose/:id), so only unmatched requests need folding.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

var (
	domainMetrics     *DomainMetrics
	domainMetricsOnce sync.Once
)

// DomainMetrics are Prometheus counters for application events.
type DomainMetrics struct {
	RecordsCreated *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	Registrations  prometheus.Counter
	Alerts         *prometheus.CounterVec
	ChatMessages   prometheus.Counter
}

// NewDomainMetrics registers the counters with the default Prometheus
// registry. Registration happens once per process.
//
// Metrics:
//   - vitanote_records_created_total{kind}
//   - vitanote_logins_total{result}
//   - vitanote_registrations_total
//   - vitanote_alerts_total{alert}
//   - vitanote_chat_messages_total
func NewDomainMetrics() *DomainMetrics {
	domainMetricsOnce.Do(func() {
		domainMetrics = &DomainMetrics{
			RecordsCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "vitanote_records_created_total",
					Help: "Total number of records created",
				},
				[]string{"kind"}, // glucose, blood_pressure, weight, food, medication
			),
			Logins: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "vitanote_logins_total",
					Help: "Total number of login attempts",
				},
				[]string{"result"}, // success, failure
			),
			Registrations: promauto.NewCounter(prometheus.CounterOpts{
				Name: "vitanote_registrations_total",
				Help: "Total number of registered accounts",
			}),
			Alerts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "vitanote_alerts_total",
					Help: "Total number of health alerts raised",
				},
				[]string{"alert"},
			),
			ChatMessages: promauto.NewCounter(prometheus.CounterOpts{
				Name: "vitanote_chat_messages_total",
				Help: "Total number of chat messages sent by users",
			}),
		}
	})
	return domainMetrics
}
