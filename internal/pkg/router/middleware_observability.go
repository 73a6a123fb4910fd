package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/authgate/internal/pkg/config"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxLoggedBody = 8 << 10
	masked        = "***"
)

// recorder captures what the handler wrote so it can be logged and measured.
type recorder struct {
	http.ResponseWriter
	status int
	size   int
	body   bytes.Buffer
	err    error
}

func (w *recorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		w.body.Write(p[:min(room, len(p))])
	}

	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

func (w *recorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// observability traces every request, records the request counter and
// duration histogram, and logs one line per exchange with masked bodies.
func observability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	mask := maskSet(cfg)
	tracer := ins.Tracer("mockauth.http")
	meter := ins.Meter("mockauth.http")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := routeOf(r)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			reqBody := peekBody(r)
			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			span.SetAttributes(attrs...)
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if duration != nil {
				duration.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			slog.Log(ctx, level, "http exchange",
				"method", r.Method,
				"route", route,
				"remote_addr", r.RemoteAddr,
				"status", status,
				"bytes", rec.size,
				"latency_ms", elapsed.Milliseconds(),
				"request", maskJSON(reqBody, mask),
				"response", maskJSON(rec.body.Bytes(), mask),
			)
		})
	}
}

// peekBody reads up to maxLoggedBody bytes and restores r.Body.
func peekBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}

	return head
}

type readCloser struct {
	io.Reader
	io.Closer
}

func maskSet(cfg config.Config) map[string]bool {
	set := make(map[string]bool)
	if cfg == nil {
		return set
	}
	for _, f := range cfg.GetArray("instrument.log_mask_fields") {
		set[strings.ToLower(f)] = true
	}

	return set
}

// maskJSON decodes body and replaces every value whose key is in mask.
// Bodies that are not JSON are logged by size only.
func maskJSON(body []byte, mask map[string]bool) any {
	if len(body) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return map[string]int{"unparsed_bytes": len(body)}
	}

	return maskValue(v, mask)
}

func maskValue(v any, mask map[string]bool) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			if mask[strings.ToLower(k)] {
				val[k] = masked
				continue
			}
			val[k] = maskValue(inner, mask)
		}
	case []any:
		for i, inner := range val {
			val[i] = maskValue(inner, mask)
		}
	}

	return v
}
