package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "sentilabel_http_request_duration_seconds",
	Help:    "HTTP request latency by route, method and status",
	Buckets: prometheus.DefBuckets,
}, []string{"route", "method", "status"})

// Metrics records request latency per chi route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		requestDuration.
			WithLabelValues(routePattern(r), r.Method, strconv.Itoa(ww.status)).
			Observe(time.Since(start).Seconds())
	})
}
