// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes other than "status_<code>".
const (
	outcomeSuccess   = "success"
	outcomeTimeout   = "timeout"
	outcomeCancelled = "cancelled"
	outcomeError     = "error"
)

// Metrics holds the client's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	subscriptions prometheus.Gauge
	events        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with registerer.
// A nil registerer leaves them unregistered.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imlink",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests by method, route and outcome.",
		}, []string{"method", "route", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "imlink",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "imlink",
			Subsystem: "realtime",
			Name:      "subscribed_channels",
			Help:      "Channels in the pub/sub subscription set.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imlink",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Inbound events by type.",
		}, []string{"type"}),
	}
	if registerer == nil {
		return metrics, nil
	}
	for _, collector := range []prometheus.Collector{
		metrics.requests, metrics.latency, metrics.subscriptions, metrics.events,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, fmt.Errorf("messaging: registering metrics: %w", err)
		}
	}
	return metrics, nil
}

func (m *Metrics) observeRequest(method, route, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, outcome).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) setSubscriptions(count int) {
	if m == nil {
		return
	}
	m.subscriptions.Set(float64(count))
}

func (m *Metrics) countEvent(eventType EventType) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(eventType)).Inc()
}
