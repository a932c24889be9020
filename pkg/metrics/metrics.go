package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ClaimsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adslot_claims_submitted_total",
			Help: "Total number of placement claims by outcome",
		},
		[]string{"outcome"},
	)

	PlacementsPromoted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adslot_placements_promoted_total",
			Help: "Total number of queued placements promoted to active",
		},
	)

	PlacementsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adslot_placements_expired_total",
			Help: "Total number of active placements evicted after expiry",
		},
	)

	PlacementsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adslot_placements_cancelled_total",
			Help: "Total number of queued placements withdrawn by their bidder",
		},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adslot_queue_depth",
			Help: "Number of queued placements per slot after the last write",
		},
		[]string{"slot_id"},
	)

	StoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adslot_store_duration_seconds",
			Help:    "Slot store call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	PaymentsSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adslot_payments_total",
			Help: "Checkout payments by facilitator outcome",
		},
		[]string{"outcome"},
	)

	AdInteractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adslot_ad_interactions_total",
			Help: "Tracked ad views, clicks and render errors",
		},
		[]string{"kind"},
	)

	ResponseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)
)

func init() {
	prometheus.MustRegister(ClaimsSubmitted)
	prometheus.MustRegister(PlacementsPromoted)
	prometheus.MustRegister(PlacementsExpired)
	prometheus.MustRegister(PlacementsCancelled)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(StoreLatency)
	prometheus.MustRegister(PaymentsSettled)
	prometheus.MustRegister(AdInteractions)
	prometheus.MustRegister(ResponseTime)
}

// ObserveStore records how long a slot store call took.
func ObserveStore(op string, start time.Time) {
	StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// GinMiddleware records request latency by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		ResponseTime.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
