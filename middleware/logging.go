package middleware

import (
	"net/http"
	"strconv"
	"time"

	"ecofinds/logging"
	"ecofinds/metrics"

	"github.com/gorilla/mux"
)

// RequestIDHeader carries the request ID in and out
const RequestIDHeader = "X-Request-ID"

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags each request with an ID, logs it when done and records
// Prometheus metrics under the matched route template
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = logging.NewRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.ContextWithRequestID(r.Context(), id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(rec.status), elapsed)

		event := logging.Ctx(ctx).Info()
		if rec.status >= http.StatusInternalServerError {
			event = logging.Ctx(ctx).Error()
		}
		event.
			Str("method", r.Method).
			Str("route", route).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("request")
	})
}
