package metrics

import (
	"net/http"
	"time"
)

// statusRecorder captures the status code written by the wrapped
// handler. Handlers that never call WriteHeader implicitly send 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware instruments every request with the registry's request
// counter, latency histogram and in-flight gauge.
func HTTPMiddleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			reg.InFlightInc()
			defer func() {
				reg.InFlightDec()
				reg.RecordRequest(r.Method, r.URL.Path, rec.status, time.Since(start).Seconds())
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
