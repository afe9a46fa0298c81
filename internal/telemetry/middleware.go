package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// responseWriter wraps http.ResponseWriter to capture response size and status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += int64(size)
	return size, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

type rpcMethodKey struct{}

// rpcMethod is filled in by the MCP transport once it has parsed the body.
type rpcMethod struct {
	name string
}

// SetRPCMethod records the JSON-RPC method carried by the request behind
// ctx. It is a no-op outside HTTPMetricsMiddleware.
func SetRPCMethod(ctx context.Context, method string) {
	if m, ok := ctx.Value(rpcMethodKey{}).(*rpcMethod); ok {
		m.name = method
	}
}

// HTTPMetricsMiddleware creates middleware that records HTTP metrics, and
// per JSON-RPC method counts for requests that carried an MCP message.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			metrics.IncHTTPRequestsInFlight()
			defer metrics.DecHTTPRequestsInFlight()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			requestSize := r.ContentLength
			if requestSize < 0 {
				requestSize = 0
			}

			method := &rpcMethod{}
			next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), rpcMethodKey{}, method)))

			// Group by route pattern so path parameters don't explode the label set.
			endpoint := r.URL.Path
			if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
				if pattern := routeCtx.RoutePattern(); pattern != "" {
					endpoint = pattern
				}
			}

			metrics.RecordHTTPRequest(
				r.Method,
				endpoint,
				strconv.Itoa(rw.statusCode),
				time.Since(start),
				requestSize,
				rw.size,
			)
			if method.name != "" {
				metrics.RecordMCPMessage(method.name, strconv.Itoa(rw.statusCode))
			}
		})
	}
}
