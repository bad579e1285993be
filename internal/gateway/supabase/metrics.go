package supabase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Labels: table, method, status
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simpletracker",
		Subsystem: "supabase",
		Name:      "requests_total",
		Help:      "Requests sent to Supabase by table and response status",
	}, []string{"table", "method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "simpletracker",
		Subsystem: "supabase",
		Name:      "request_duration_seconds",
		Help:      "Supabase request latency in seconds",
		Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"table", "method"})

	// Labels: type (INSERT, UPDATE, DELETE)
	realtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simpletracker",
		Subsystem: "realtime",
		Name:      "events_total",
		Help:      "Change notifications received on the current task channel",
	}, []string{"type"})

	realtimeSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "simpletracker",
		Subsystem: "realtime",
		Name:      "subscriptions",
		Help:      "Open realtime channels",
	})
)
