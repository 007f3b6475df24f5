// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace messaging core. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "krush"

// ── Chat metrics ──────────────────────────────────────────────────────────────

// RoomsCreatedTotal counts rooms created on first contact. Rooms recovered
// after losing a creation race are not counted.
var RoomsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rooms_created_total",
		Help:      "Total number of chat rooms created.",
	},
)

// MessagesAppendedTotal counts messages durably appended to a room log.
var MessagesAppendedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_appended_total",
		Help:      "Total number of chat messages appended.",
	},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsEmittedTotal counts notifications written to an inbox.
// Label:
//   - kind: "chat", "price" or "status"
var NotificationsEmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_emitted_total",
		Help:      "Total number of notifications written, by kind.",
	},
	[]string{"kind"},
)

// NotificationsFailedTotal counts notification writes that failed and were dropped.
// Label:
//   - kind: "chat", "price" or "status"
var NotificationsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_failed_total",
		Help:      "Total number of notification writes that failed.",
	},
	[]string{"kind"},
)

// FanoutDuration measures one fan-out run from recipient lookup to the last write.
// Label:
//   - trigger: "chat" or "product_change"
var FanoutDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fanout_duration_seconds",
		Help:      "Duration of a notification fan-out run.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"trigger"},
)

// FanoutQueueDepth tracks product changes waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var FanoutQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fanout_queue_depth",
		Help:      "Current number of product changes pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// FanoutDroppedTotal counts product changes dropped because a worker channel was full.
var FanoutDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fanout_dropped_total",
		Help:      "Total number of product changes dropped before fan-out.",
	},
)

// ── Like / rate-limit metrics ────────────────────────────────────────────────

// LikeTogglesTotal counts like toggles.
// Label:
//   - result: "liked" or "unliked"
var LikeTogglesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "like_toggles_total",
		Help:      "Total number of like toggles, by resulting state.",
	},
	[]string{"result"},
)

// RateLimitedTotal counts requests rejected by the rate limiter.
// Label:
//   - action: limited action name (e.g. "send_message")
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"action"},
)
