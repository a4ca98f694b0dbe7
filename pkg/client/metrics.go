package client

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics records Execute calls. A nil *metrics records nothing.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threatfox_client_requests_total",
			Help: "ThreatFox API requests by query and HTTP status",
		},
		[]string{"query", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "threatfox_client_request_duration_seconds",
			Help:    "ThreatFox API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &metrics{requests: requests, duration: duration}, nil
}

// register adds c to reg, reusing an identical collector registered by an
// earlier client on the same registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) observe(query, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(query, status).Inc()
	m.duration.WithLabelValues(query).Observe(d.Seconds())
}
