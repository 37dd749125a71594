package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shandysiswandi/verimail/internal/pkg/config"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// logBodyLimit caps how much of a request or response body is captured
// for logging. Bodies past the cap are truncated, never dropped.
const logBodyLimit = 32 * 1024

// middlewareObservability wraps every endpoint in a server span, emits
// the request counter and duration histogram, and logs the request and
// response with configured fields masked.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	maskKeys := maskKeysFromConfig(cfg)
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route, trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
			))
			defer span.End()

			logInbound(ctx, r, route, maskKeys)

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusOr(http.StatusOK)
			elapsed := time.Since(start)

			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}
			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rec.bytes),
			)

			if rec.err != nil {
				span.RecordError(rec.err)
			}
			switch {
			case status < http.StatusInternalServerError:
				span.SetStatus(codes.Ok, "")
			case rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			default:
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if duration != nil {
				duration.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(attrs...))
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", elapsed.Milliseconds(),
				"body", rec.loggableBody(maskKeys),
			)
		})
	}
}

// responseRecorder captures the status, size and a bounded copy of the
// body, plus the handler error for span reporting. It forwards the
// optional http.ResponseWriter extensions the server may probe for.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   *bytes.Buffer
	capped bool
	err    error
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.capture(p)

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *responseRecorder) capture(p []byte) {
	if w.body == nil || w.capped || len(p) == 0 {
		return
	}
	room := logBodyLimit - w.body.Len()
	if room <= 0 {
		w.capped = true
		return
	}
	if len(p) > room {
		w.body.Write(p[:room])
		w.capped = true
		return
	}
	w.body.Write(p)
}

// SetError records the handler error; the router calls it before the
// error envelope is written.
func (w *responseRecorder) SetError(err error) { w.err = err }

func (w *responseRecorder) statusOr(fallback int) int {
	if w.status == 0 {
		return fallback
	}
	return w.status
}

func (w *responseRecorder) loggableBody(maskKeys map[string]struct{}) any {
	if w.body == nil || w.body.Len() == 0 {
		return nil
	}

	var body any
	var parsed any
	if err := json.Unmarshal(w.body.Bytes(), &parsed); err == nil {
		body = maskValue(parsed, maskKeys)
	} else if utf8.Valid(w.body.Bytes()) {
		body = w.body.String()
	} else {
		body = "<binary body omitted>"
	}

	if w.capped {
		return map[string]any{"body": body, "truncated": true}
	}
	return body
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

//nolint:err113 // dynamic error is fine here
func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijack not supported")
}

func (w *responseRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := w.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

// logInbound logs the request line, headers and a bounded copy of the
// body, leaving r.Body replayable for the handler.
func logInbound(ctx context.Context, r *http.Request, route string, maskKeys map[string]struct{}) {
	var body []byte
	if r.Body != nil {
		peeked, _ := io.ReadAll(io.LimitReader(r.Body, logBodyLimit+1)) //nolint:errcheck // logging only
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(peeked), r.Body))
		if len(peeked) > logBodyLimit {
			peeked = peeked[:logBodyLimit]
		}
		body = peeked
	}

	slog.InfoContext(ctx, "request received",
		"method", r.Method,
		"path", route,
		"uri", r.RequestURI,
		"headers", maskHeaders(r.Header, maskKeys),
		"body", maskBody(r.Header.Get("Content-Type"), body, maskKeys),
	)
}

// maskBody renders the captured request body for logging: JSON and
// form bodies are parsed so configured fields can be masked, anything
// else is logged as text when printable.
func maskBody(contentType string, body []byte, maskKeys map[string]struct{}) any {
	if len(body) == 0 {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		return maskValue(parsed, maskKeys)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(body)); err == nil {
			return maskForm(values, maskKeys)
		}
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if len(body) > logBodyLimit {
		return string(body[:logBodyLimit]) + "...(truncated)"
	}
	return string(body)
}

func maskForm(values url.Values, maskKeys map[string]struct{}) map[string]any {
	masked := make(map[string]any, len(values))
	for k, v := range values {
		if _, hit := maskKeys[strings.ToLower(k)]; hit {
			masked[k] = "***"
			continue
		}
		if len(v) == 1 {
			masked[k] = v[0]
		} else {
			masked[k] = v
		}
	}
	return masked
}

func maskHeaders(headers http.Header, maskKeys map[string]struct{}) http.Header {
	if len(maskKeys) == 0 {
		return headers
	}

	clean := headers.Clone()
	for key := range clean {
		if _, hit := maskKeys[strings.ToLower(key)]; hit {
			clean.Set(key, "***")
		}
	}
	return clean
}

func maskValue(v any, maskKeys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		clean := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hit := maskKeys[strings.ToLower(k)]; hit {
				clean[k] = "***"
			} else {
				clean[k] = maskValue(inner, maskKeys)
			}
		}
		return clean
	case []any:
		clean := make([]any, len(val))
		for i, inner := range val {
			clean[i] = maskValue(inner, maskKeys)
		}
		return clean
	default:
		return v
	}
}

func maskKeysFromConfig(cfg config.Config) map[string]struct{} {
	keys := make(map[string]struct{})
	if cfg == nil {
		return keys
	}
	for _, field := range cfg.GetArray("instrument.log_mask_fields") {
		if field = strings.TrimSpace(strings.ToLower(field)); field != "" {
			keys[field] = struct{}{}
		}
	}
	return keys
}
