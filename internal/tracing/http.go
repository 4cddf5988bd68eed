package tracing

import (
	"net/http"
	"strconv"

	"github.com/yousuf64/shift"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// OtelMiddleware starts a server span per request, continuing any propagated trace
func OtelMiddleware(next shift.HandlerFunc) shift.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, route shift.Route) error {
		ctx := GetPropagator().Extract(r.Context(), &httpHeaderCarrier{r.Header})

		ctx, span := StartSpan(ctx, r.Method+" "+route.Path)
		defer span.End()

		span.SetAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.URLPath(r.URL.Path),
			semconv.HTTPRoute(route.Path),
			semconv.UserAgentOriginal(r.UserAgent()),
		)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		err := next(sw, r.WithContext(ctx), route)

		span.SetAttributes(semconv.HTTPResponseStatusCode(sw.status))
		if sw.status >= 400 || err != nil {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(sw.status))
		}
		return err
	}
}

// Transport wraps next so every outbound request gets a client span and propagated context
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &tracingRoundTripper{next: next}
}

type tracingRoundTripper struct {
	next http.RoundTripper
}

func (t *tracingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := StartSpan(req.Context(), "http.client "+req.Method)
	defer span.End()

	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.URLFull(req.URL.String()),
		semconv.ServerAddress(req.URL.Hostname()),
	)
	if port := req.URL.Port(); port != "" {
		span.SetAttributes(attribute.String("server.port", port))
	}

	// RoundTrippers must not modify the caller's request
	req = req.Clone(ctx)
	GetPropagator().Inject(ctx, &httpHeaderCarrier{req.Header})

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		SetError(ctx, err)
		return resp, err
	}

	span.SetAttributes(semconv.HTTPResponseStatusCode(resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
	}
	return resp, nil
}

type httpHeaderCarrier struct {
	header http.Header
}

func (h *httpHeaderCarrier) Get(key string) string { return h.header.Get(key) }

func (h *httpHeaderCarrier) Set(key, value string) { h.header.Set(key, value) }

func (h *httpHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(h.header))
	for k := range h.header {
		keys = append(keys, k)
	}
	return keys
}

// statusWriter records the status code written by a handler
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
