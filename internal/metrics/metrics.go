// Package metrics collects Prometheus metrics for the HTTP API, live
// connections and the document store.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the rest of the service reports to. Nop satisfies it
// when metrics are off.
type Recorder interface {
	RecordHTTP(method, route string, status int, d time.Duration)
	WSConnected()
	WSDisconnected()
	SubscriptionOpened()
	SubscriptionClosed()
	SnapshotDelivered(collection string)
	WriteFailed(op string)
}

type Collector struct {
	httpResponses *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	wsClients     prometheus.Gauge
	subscriptions prometheus.Gauge
	snapshots     *prometheus.CounterVec
	writeFailures *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_http_responses_total",
			Help: "HTTP responses by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "journal_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journal_ws_clients",
			Help: "Connected live sync clients.",
		}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "journal_store_subscriptions",
			Help: "Open document store subscriptions.",
		}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_store_snapshots_total",
			Help: "Snapshots delivered to subscribers by collection.",
		}, []string{"collection"}),
		writeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_store_write_failures_total",
			Help: "Failed document store writes by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		c.httpResponses,
		c.httpLatency,
		c.wsClients,
		c.subscriptions,
		c.snapshots,
		c.writeFailures,
	)
	return c
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (c *Collector) RecordHTTP(method, route string, status int, d time.Duration) {
	c.httpResponses.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) WSConnected()        { c.wsClients.Inc() }
func (c *Collector) WSDisconnected()     { c.wsClients.Dec() }
func (c *Collector) SubscriptionOpened() { c.subscriptions.Inc() }
func (c *Collector) SubscriptionClosed() { c.subscriptions.Dec() }

func (c *Collector) SnapshotDelivered(collection string) {
	c.snapshots.WithLabelValues(collection).Inc()
}

func (c *Collector) WriteFailed(op string) {
	c.writeFailures.WithLabelValues(op).Inc()
}

// Handler serves the scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordHTTP(string, string, int, time.Duration) {}
func (Nop) WSConnected()                                  {}
func (Nop) WSDisconnected()                               {}
func (Nop) SubscriptionOpened()                           {}
func (Nop) SubscriptionClosed()                           {}
func (Nop) SnapshotDelivered(string)                      {}
func (Nop) WriteFailed(string)                            {}
