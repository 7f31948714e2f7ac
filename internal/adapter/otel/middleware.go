package otel

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// HTTPMiddleware returns a chi middleware that creates a span per request,
// named after the method and the matched route pattern, so every run ID
// under /api/v1/runs/{id} shares one span name. Requests that match no
// route keep the bare method as their name.
func HTTPMiddleware(serviceName string, opts ...otelhttp.Option) func(http.Handler) http.Handler {
	options := make([]otelhttp.Option, 0, len(opts)+1)
	options = append(options, otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		return r.Method
	}))
	options = append(options, opts...)

	return func(next http.Handler) http.Handler {
		// chi fills in the pattern while routing, after the span has started.
		named := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if pattern := rc.RoutePattern(); pattern != "" {
					trace.SpanFromContext(r.Context()).SetName(r.Method + " " + pattern)
				}
			}
		})
		return otelhttp.NewHandler(named, serviceName, options...)
	}
}
