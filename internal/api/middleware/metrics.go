package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webscrape_http_requests_total",
		Help: "HTTP requests processed, by method and status class.",
	}, []string{"method", "status"})

	authDenialsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webscrape_auth_denials_total",
		Help: "Requests rejected with 401 or 403.",
	})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webscrape_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer's optional
// interfaces (Hijacker and friends).
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Metrics counts every request and the interesting rejection classes.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		switch rec.status {
		case http.StatusUnauthorized, http.StatusForbidden:
			authDenialsTotal.Inc()
		case http.StatusTooManyRequests:
			rateLimitedTotal.Inc()
		}
	})
}
