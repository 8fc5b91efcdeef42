// Package metrics holds the Prometheus collectors of the fetch service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "edinetfetch"

type Metrics struct {
	gatherer prometheus.Gatherer

	requestsTotal    *prometheus.CounterVec
	documentsTotal   *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	archiveBytes     prometheus.Histogram
}

// New registers the collectors on reg. Each server owns its registry so that
// several servers can live in one process (tests do).
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Fetch requests by response status code.",
			},
			[]string{"code"},
		),
		documentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Matched documents by download outcome.",
			},
			[]string{"status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Duration of EDINET calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		archiveBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "archive_size_bytes",
				Help:      "Size of saved document archives.",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
	}

	reg.MustRegister(m.requestsTotal, m.documentsTotal, m.upstreamDuration, m.archiveBytes)
	return m
}

func (m *Metrics) ObserveRequest(code int) {
	m.requestsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveDocument counts one matched document; status is a download status
// or "skipped".
func (m *Metrics) ObserveDocument(status string) {
	m.documentsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveUpstream(operation string, elapsed time.Duration) {
	m.upstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveArchiveSize(n int64) {
	m.archiveBytes.Observe(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
