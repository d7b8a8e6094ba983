// Package metrics defines and registers the custom Prometheus metrics of the
// RecetAR API. It is the single source of truth for metric names, labels and
// help strings. HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recetar"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthLoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var AuthLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthRefreshTotal counts refresh token exchanges.
// Label:
//   - result: "success", "expired" or "error"
var AuthRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_refresh_total",
		Help:      "Total number of refresh token exchanges, by result.",
	},
	[]string{"result"},
)

// UsersRegisteredTotal counts completed registrations.
// Label:
//   - role: "admin", "pharmacist" or "other"
var UsersRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of registered users, by role.",
	},
	[]string{"role"},
)

// RecoveryRequestsTotal counts password recovery requests.
// Label:
//   - result: "sent", "not_found", "throttled" or "error"
var RecoveryRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recovery_requests_total",
		Help:      "Total number of password recovery requests, by result.",
	},
	[]string{"result"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailSentTotal counts delivery outcomes.
// Labels:
//   - template: "new-user" or "recover-password"
//   - result: "sent", "failed" or "dropped"
var MailSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_sent_total",
		Help:      "Total number of outbound mails, by template and result.",
	},
	[]string{"template", "result"},
)

// MailSendDuration measures a single delivery attempt against the SMTP server.
var MailSendDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mail_send_duration_seconds",
		Help:      "Duration of one SMTP delivery attempt.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	},
)

// MailQueueDepth tracks the mails waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of mails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Supply metrics ────────────────────────────────────────────────────────────

// SupplySearchesTotal counts catalog name searches.
// Label:
//   - mode: "text" (several words), "regex" (one word) or "empty"
var SupplySearchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "supply_searches_total",
		Help:      "Total number of supply name searches, by search mode.",
	},
	[]string{"mode"},
)
