// Package metrics exposes the client's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OutboundRequests counts requests dispatched through the secure
	// transport, labelled by whether a credential was attached.
	OutboundRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lectures",
		Name:      "outbound_requests_total",
		Help:      "Requests dispatched through the credential-attaching transport.",
	}, []string{"auth"})

	// SnapshotsApplied counts job collection snapshots applied to the model.
	SnapshotsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lectures",
		Name:      "snapshots_applied_total",
		Help:      "Job collection snapshots applied to the dashboard model.",
	})

	// SnapshotsDelivered counts snapshots produced by subscriptions.
	SnapshotsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lectures",
		Name:      "snapshots_delivered_total",
		Help:      "Snapshots delivered by job collection subscriptions.",
	})

	// SubscriptionErrors counts degraded-stream events.
	SubscriptionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lectures",
		Name:      "subscription_errors_total",
		Help:      "Degraded-connection events reported by subscriptions.",
	})
)
