package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/jugtracker/internal/jugledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jugRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jug_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	jugRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jug_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	jugEventsAppendedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jug_events_appended_total",
		Help: "Total jug events appended to the ledger by state.",
	}, []string{"state"})

	jugBulkUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jug_bulk_updates_total",
		Help: "Total tail edit submissions by result.",
	}, []string{"result"})

	jugLedgerRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jug_ledger_rows",
		Help: "Number of rows in the ledger at the last probe.",
	})

	jugLedgerProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jug_ledger_probes_total",
		Help: "Total ledger readability probes by result.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		jugRequestsTotal.WithLabelValues(method, path, status).Inc()
		jugRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordEventsAppended records n appended events of the given state.
func RecordEventsAppended(state jugledger.State, n int) {
	if n > 0 {
		jugEventsAppendedTotal.WithLabelValues(string(state)).Add(float64(n))
	}
}

// RecordBulkUpdate records the outcome of a tail edit.
func RecordBulkUpdate(result string) {
	jugBulkUpdatesTotal.WithLabelValues(result).Inc()
}

// RecordLedgerProbe records a ledger readability probe result.
func RecordLedgerProbe(success bool) {
	if success {
		jugLedgerProbesTotal.WithLabelValues("success").Inc()
	} else {
		jugLedgerProbesTotal.WithLabelValues("failure").Inc()
	}
}

// SetLedgerRows sets the ledger row gauge.
func SetLedgerRows(n int) {
	jugLedgerRows.Set(float64(n))
}

func bulkResult(err error) string {
	var verr *jugledger.ValidationError
	var cerr *jugledger.ConflictError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.As(err, &cerr):
		return "conflict"
	default:
		return "error"
	}
}
