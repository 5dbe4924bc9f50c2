package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the match-coordination lobby server.
//
// Naming convention: namespace_subsystem_name
//   - namespace: phira_mp (application-level grouping)
//   - subsystem: connection, room, packet, identity, circuit_breaker, chat (feature-level grouping)
//
// Metric Types:
//   - Gauge: current state (connections, rooms, participants)
//   - Counter: cumulative events (packets processed, rejections)
//   - Histogram: latency distributions (identity-service round trips)
var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phira_mp",
		Subsystem: "connection",
		Name:      "connections_active",
		Help:      "Current number of accepted TCP connections",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "phira_mp",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of live rooms",
	})

	RoomParticipants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "phira_mp",
		Subsystem: "room",
		Name:      "participants_count",
		Help:      "Number of participants in each room",
	}, []string{"room_id"})

	InboundPackets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phira_mp",
		Subsystem: "packet",
		Name:      "inbound_total",
		Help:      "Total inbound packets processed",
	}, []string{"packet_type", "status"})

	OutboundQueueDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phira_mp",
		Subsystem: "connection",
		Name:      "outbound_queue_drops_total",
		Help:      "Total outbound packets dropped due to a full per-connection queue",
	}, []string{})

	IdentityRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "phira_mp",
		Subsystem: "identity",
		Name:      "request_duration_seconds",
		Help:      "Duration of identity/chart/record HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "phira_mp",
		Subsystem: "circuit_breaker",
		Name:      "state",
		Help:      "Current state of the identity-service circuit breaker (0: Closed, 1: Half-Open, 2: Open)",
	}, []string{"service"})

	IdentityCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "phira_mp",
		Subsystem: "identity",
		Name:      "cache_requests_total",
		Help:      "Total get_user_info cache lookups",
	}, []string{"result"})

	ChatRateLimitExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "phira_mp",
		Subsystem: "chat",
		Name:      "rate_limit_exceeded_total",
		Help:      "Total chat messages rejected by the flood-protection limiter",
	})
)

func IncConnection() { ActiveConnections.Inc() }
func DecConnection() { ActiveConnections.Dec() }
