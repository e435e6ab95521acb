package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the API and funnel flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	dispositionsTotal    *prometheus.CounterVec
	autoEscalationsTotal prometheus.Counter
	assignmentsTotal     prometheus.Counter
	communicationsTotal  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "funnel_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "funnel_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		dispositionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "funnel_engine",
				Name:      "dispositions_total",
				Help:      "Total number of disposition reports applied by outcome class and resulting stage.",
			},
			[]string{"class", "stage"},
		),
		autoEscalationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "funnel_engine",
				Name:      "auto_escalations_total",
				Help:      "Total number of calls escalated to closure by the no-contact budget.",
			},
		),
		assignmentsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "funnel_engine",
				Name:      "assignments_total",
				Help:      "Total number of calls distributed to agents.",
			},
		),
		communicationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "funnel_engine",
				Name:      "communications_total",
				Help:      "Total number of outbound communications logged by kind.",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dispositionsTotal,
		m.autoEscalationsTotal,
		m.assignmentsTotal,
		m.communicationsTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

// IncDisposition counts an applied outcome. Outcome labels are an open
// vocabulary; only the recognized class goes into the label to keep
// cardinality bounded.
func (m *Metrics) IncDisposition(outcome string, stage string) {
	if m == nil {
		return
	}
	m.dispositionsTotal.WithLabelValues(outcomeClass(outcome), normalizeLabel(stage)).Inc()
}

func (m *Metrics) IncAutoEscalation() {
	if m == nil {
		return
	}
	m.autoEscalationsTotal.Inc()
}

func (m *Metrics) AddAssignments(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.assignmentsTotal.Add(float64(n))
}

func (m *Metrics) IncCommunication(kind string) {
	if m == nil {
		return
	}
	m.communicationsTotal.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func outcomeClass(outcome string) string {
	trimmed := strings.TrimSpace(outcome)
	switch {
	case trimmed == "":
		return "unknown"
	case domain.IsNoContactOutcome(trimmed):
		return "no_contact"
	case domain.IsRecognizedOutcome(trimmed):
		return "recognized"
	default:
		return "other"
	}
}

func normalizeLabel(v string) string {
	normalized := strings.ToLower(strings.TrimSpace(v))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
