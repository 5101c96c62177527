// Package telemetry holds the process-wide Prometheus collectors.
//
// Label values are bounded (regions, reasons, event names); never label by
// player or match id.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Match simulation
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_tick_duration_seconds",
		Help:    "Time spent in one match tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.033},
	})

	ActiveMatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lobby_active_matches",
		Help: "Matches currently registered",
	})

	ConnectedPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lobby_connected_players",
		Help: "Players currently seated in a match",
	})

	ShotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_shots_total",
		Help: "Accepted shots",
	})

	HitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_hits_total",
		Help: "Resolved hits by body region",
	}, []string{"region"}) // Bounded: the seven hitbox regions

	LagCompensatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_lag_compensation_total",
		Help: "Shots resolved with or without a historical snapshot",
	}, []string{"result"}) // Bounded: "compensated", "live"

	KillsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_kills_total",
		Help: "Fatal hits",
	})

	RoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_rounds_ended_total",
		Help: "Rounds ended by reason",
	}, []string{"reason"})

	MatchesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_finished_total",
		Help: "Matches that reached MATCH_END",
	})

	MovementRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_movement_rejected_total",
		Help: "Movement updates dropped by collision validation",
	})

	// Event journal
	EventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_dropped_total",
		Help: "Journal events dropped due to rate limiting or buffer full",
	})

	// Transport
	ConnectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter, origin check or lobby",
	}, []string{"reason"})

	Admission = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admission_decisions_total",
		Help: "Per-IP limiter decisions",
	}, []string{"limiter", "result"}) // Bounded: "http"/"ws" x "allowed"/"rejected"

	WSConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket sessions",
	})

	WSMessagesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_sent_total",
		Help: "WebSocket frames sent",
	})

	WSMessagesIn = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_received_total",
		Help: "WebSocket frames received by event",
	}, []string{"event"}) // Bounded: known inbound events plus "invalid" and "throttled"

	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})
)

// RecordTick records tick timing.
func RecordTick(d time.Duration) {
	TickDuration.Observe(d.Seconds())
}

// RecordHit counts a resolved hit.
func RecordHit(region string, compensated bool) {
	HitsTotal.WithLabelValues(region).Inc()
	recordCompensation(compensated)
}

// RecordMiss counts a shot that hit nothing.
func RecordMiss(compensated bool) {
	recordCompensation(compensated)
}

func recordCompensation(compensated bool) {
	if compensated {
		LagCompensatedTotal.WithLabelValues("compensated").Inc()
		return
	}
	LagCompensatedTotal.WithLabelValues("live").Inc()
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_total_limit",
// "ws_ip_limit", "not_found", "full", "closed".
func RecordConnectionRejected(reason string) {
	ConnectionRejected.WithLabelValues(reason).Inc()
}

// RecordAdmission counts one per-IP limiter decision.
func RecordAdmission(limiter string, allowed bool) {
	if allowed {
		Admission.WithLabelValues(limiter, "allowed").Inc()
		return
	}
	Admission.WithLabelValues(limiter, "rejected").Inc()
}

// RecordRequest records HTTP request latency.
func RecordRequest(method, endpoint string, d time.Duration) {
	RequestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
}
