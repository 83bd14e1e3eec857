// Package metrics defines the Prometheus counters exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authenticas"

// VerificationsTotal counts verification decisions.
// Labels: status (approved, denied), reason (denial reason, or "" when approved).
var VerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "verifications_total",
		Help:      "Purchase verification decisions by status and denial reason.",
	},
	[]string{"status", "reason"},
)

// WebhookDeliveriesTotal counts finished webhook delivery attempts.
// Labels: event, outcome (delivered, failed).
var WebhookDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "webhook",
		Name:      "deliveries_total",
		Help:      "Webhook deliveries by event and final outcome.",
	},
	[]string{"event", "outcome"},
)
