// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups the service collectors. A nil *Collectors is valid and
// records nothing.
type Collectors struct {
	InFlight   prometheus.Gauge
	Rejections *prometheus.CounterVec
	Records    *prometheus.CounterVec
	Requests   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "datagen",
			Name:      "inflight_requests",
			Help:      "Generation requests currently admitted.",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datagen",
			Name:      "admission_rejections_total",
			Help:      "Generation requests rejected by admission control, by tier capacity.",
		}, []string{"capacity"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datagen",
			Name:      "records_emitted_total",
			Help:      "Records written to clients, by generation path.",
		}, []string{"path"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datagen",
			Name:      "generation_requests_total",
			Help:      "Finished generation requests, by path and outcome.",
		}, []string{"path", "outcome"}),
	}

	for _, col := range []prometheus.Collector{c.InFlight, c.Rejections, c.Records, c.Requests} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetInFlight records the current admitted request count.
func (c *Collectors) SetInFlight(n int) {
	if c == nil {
		return
	}
	c.InFlight.Set(float64(n))
}

// Rejected counts an admission rejection for a tier.
func (c *Collectors) Rejected(capacity int) {
	if c == nil {
		return
	}
	c.Rejections.WithLabelValues(strconv.Itoa(capacity)).Inc()
}

// Emitted adds n records written on path.
func (c *Collectors) Emitted(path string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.Records.WithLabelValues(path).Add(float64(n))
}

// Finished counts one completed request.
func (c *Collectors) Finished(path, outcome string) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(path, outcome).Inc()
}
