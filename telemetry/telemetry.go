package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector receives events emitted by pollers. Hooks run inline with the
// poll loop and must be cheap.
type Collector interface {
	FetchStarted(name string)
	FetchCompleted(name string, took time.Duration)
	FetchFailed(name string, took time.Duration)
	TickSkipped(name string)
	PollerActive(name string, active bool)
}

type noopCollector struct{}

// Noop returns a collector that discards all events.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) FetchStarted(string)                  {}
func (noopCollector) FetchCompleted(string, time.Duration) {}
func (noopCollector) FetchFailed(string, time.Duration)    {}
func (noopCollector) TickSkipped(string)                   {}
func (noopCollector) PollerActive(string, bool)            {}

// PrometheusCollector exposes poller events as Prometheus metrics. The name
// label is the poller's name, e.g. "offer" or "all_offers", never a key.
type PrometheusCollector struct {
	fetches      *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	skipped      *prometheus.CounterVec
	active       *prometheus.GaugeVec
}

var (
	sharedCollector     *PrometheusCollector
	sharedCollectorLock sync.Mutex
)

// NewPrometheusCollector registers the poller metrics with reg, reusing
// metrics that are already registered under the same names.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	sharedCollectorLock.Lock()
	defer sharedCollectorLock.Unlock()
	if sharedCollector != nil && reg == prometheus.DefaultRegisterer {
		return sharedCollector, nil
	}

	fetches, err := registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "screwless_poller_fetches_total",
		Help: "Number of fetches issued by pollers, by outcome.",
	}, []string{"name", "outcome"}))
	if err != nil {
		return nil, err
	}
	latency, err := registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screwless_poller_fetch_duration_seconds",
		Help:    "Time taken by poller fetches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"name"}))
	if err != nil {
		return nil, err
	}
	skipped, err := registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "screwless_poller_ticks_skipped_total",
		Help: "Number of poll ticks skipped because a fetch was still in flight.",
	}, []string{"name"}))
	if err != nil {
		return nil, err
	}
	active, err := registerOrReuse(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "screwless_pollers_active",
		Help: "Number of pollers that currently have subscribers.",
	}, []string{"name"}))
	if err != nil {
		return nil, err
	}

	c := &PrometheusCollector{
		fetches:      fetches,
		fetchLatency: latency,
		skipped:      skipped,
		active:       active,
	}
	if reg == prometheus.DefaultRegisterer {
		sharedCollector = c
	}
	return c, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}

func (c *PrometheusCollector) FetchStarted(name string) {
	c.fetches.WithLabelValues(name, "started").Inc()
}

func (c *PrometheusCollector) FetchCompleted(name string, took time.Duration) {
	c.fetches.WithLabelValues(name, "complete").Inc()
	c.fetchLatency.WithLabelValues(name).Observe(took.Seconds())
}

func (c *PrometheusCollector) FetchFailed(name string, took time.Duration) {
	c.fetches.WithLabelValues(name, "error").Inc()
	c.fetchLatency.WithLabelValues(name).Observe(took.Seconds())
}

func (c *PrometheusCollector) TickSkipped(name string) {
	c.skipped.WithLabelValues(name).Inc()
}

func (c *PrometheusCollector) PollerActive(name string, active bool) {
	if active {
		c.active.WithLabelValues(name).Inc()
		return
	}
	c.active.WithLabelValues(name).Dec()
}
