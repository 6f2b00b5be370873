// Package metrics records call outcomes as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/nojima/apicall-go/response"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts classified results and observes call latency.
type Collector struct {
	results  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollector registers the apicall metrics on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apicall_results_total",
				Help: "Classified API call results.",
			},
			[]string{"call", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apicall_request_duration_seconds",
				Help:    "Time from dispatch to classification.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"call"},
		),
	}
	for _, collector := range []prometheus.Collector{c.results, c.duration} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Observe implements exchange.Observer.
func (c *Collector) Observe(call string, result *response.Result, elapsed time.Duration) {
	c.results.WithLabelValues(call, result.Kind.String()).Inc()
	c.duration.WithLabelValues(call).Observe(elapsed.Seconds())
}
