package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dialog_calls_active",
		Help: "Calls with live conversation state",
	})

	CallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialog_calls_total",
		Help: "Total calls started",
	})

	ToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialog_tool_invocations_total",
		Help: "Tool invocations by tool name and outcome kind",
	}, []string{"tool", "outcome"})

	StepTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialog_step_transitions_total",
		Help: "Committed step transitions",
	}, []string{"from", "to"})

	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialog_bookings_created_total",
		Help: "Bookings persisted after a successful purchase",
	})

	BackendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flight_backend_duration_seconds",
		Help:    "Flight backend round-trip latency per operation",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0},
	}, []string{"operation", "status"})
)
