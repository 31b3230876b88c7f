package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"total-comp/utils"
)

const requestIDHeader = "X-Request-ID"

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "totalcomp",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of dashboard API requests broken down by route and status code.",
	}, []string{"route", "code"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "totalcomp",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "Latency distribution for dashboard API requests.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10,
		},
	}, []string{"route"})
)

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

type loggerKey struct{}

// loggerFrom returns the request-scoped logger, or fallback outside a request.
func loggerFrom(ctx context.Context, fallback *utils.Logger) *utils.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*utils.Logger); ok {
		return l
	}
	return fallback
}

// WithLogger tags each request with an id, logs its outcome and records metrics.
func WithLogger(logger *utils.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			reqLogger := logger.WithField("request-id", requestID)
			ctx := context.WithValue(r.Context(), loggerKey{}, reqLogger)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			elapsed := time.Since(start)
			apiRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			apiLatency.WithLabelValues(route).Observe(elapsed.Seconds())

			reqLogger.Info("[http] %s %s → %d in %v", r.Method, r.URL.RequestURI(), rec.status, elapsed.Round(time.Microsecond))
		})
	}
}
