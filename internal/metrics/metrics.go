package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request metrics
	RequestDurationHistogram *prometheus.HistogramVec
	APIRequestCounter        *prometheus.CounterVec
	APIErrorCounter          *prometheus.CounterVec

	// Auth metrics
	SignInCounter *prometheus.CounterVec

	// Funnel metrics
	ApplicationsSubmittedCounter prometheus.Counter

	// Realtime metrics
	StreamSubscriptionsGauge  prometheus.Gauge
	SnapshotsPublishedCounter *prometheus.CounterVec
)

// Init registers every metric under the given namespace.
func Init(namespace string) {
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	APIRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path"},
	)

	APIErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API error responses",
		},
		[]string{"method", "path", "status"},
	)

	SignInCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_ins_total",
			Help:      "Total number of sign-in attempts",
		},
		[]string{"method", "outcome"},
	)

	ApplicationsSubmittedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "membership_applications_submitted_total",
		Help:      "Total number of membership applications submitted",
	})

	StreamSubscriptionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_subscriptions",
		Help:      "Number of live realtime topic subscriptions",
	})

	SnapshotsPublishedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Total number of snapshots published per topic class",
		},
		[]string{"class"},
	)
}

// Middleware tracks request counts, durations and error responses.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if APIRequestCounter == nil {
			c.Next()
			return
		}
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		APIRequestCounter.With(prometheus.Labels{
			"method": c.Request.Method,
			"path":   path,
		}).Inc()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		RequestDurationHistogram.With(prometheus.Labels{
			"method": c.Request.Method,
			"path":   path,
			"status": status,
		}).Observe(time.Since(start).Seconds())

		if c.Writer.Status() >= 400 {
			APIErrorCounter.With(prometheus.Labels{
				"method": c.Request.Method,
				"path":   path,
				"status": status,
			}).Inc()
		}
	}
}

// Handler exposes the scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RecordSignIn increments the sign-in counter.
func RecordSignIn(method, outcome string) {
	if SignInCounter == nil {
		return
	}
	SignInCounter.With(prometheus.Labels{"method": method, "outcome": outcome}).Inc()
}

// RecordApplicationSubmitted increments the funnel submission counter.
func RecordApplicationSubmitted() {
	if ApplicationsSubmittedCounter == nil {
		return
	}
	ApplicationsSubmittedCounter.Inc()
}

// RecordSnapshotPublished increments the per-class snapshot counter.
func RecordSnapshotPublished(class string) {
	if SnapshotsPublishedCounter == nil {
		return
	}
	SnapshotsPublishedCounter.With(prometheus.Labels{"class": class}).Inc()
}

// IncStreamSubscriptions bumps the live subscription gauge.
func IncStreamSubscriptions() {
	if StreamSubscriptionsGauge == nil {
		return
	}
	StreamSubscriptionsGauge.Inc()
}

// DecStreamSubscriptions drops the live subscription gauge.
func DecStreamSubscriptions() {
	if StreamSubscriptionsGauge == nil {
		return
	}
	StreamSubscriptionsGauge.Dec()
}
