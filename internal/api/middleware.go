package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/paycms/console/internal/cms"
	"github.com/paycms/console/internal/metrics"
)

const (
	headerAPIKey      = "Api-Key"
	headerServiceType = "Service-Type"
	serviceTypeB      = "B"
)

// requireAPIKey admits provider calls that carry an Api-Key header and the
// "B" service type. Any key value is accepted.
func requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(headerAPIKey) == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":   "Unauthorized",
				"message": "Api-Key header is required",
			})
			return
		}
		if r.Header.Get(headerServiceType) != serviceTypeB {
			writeJSON(w, http.StatusBadRequest, resultBody(cms.ErrServiceType))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument observes request latency under the matched route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
