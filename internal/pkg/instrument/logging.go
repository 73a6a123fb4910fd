package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const maskedValue = "***"

func initLogging(serviceName string, lp *sdklog.LoggerProvider, maskFields []string, out io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(newHandler(serviceName, lp, maskFields, out, level)))
}

// newHandler writes JSON lines to out and, when lp is set, mirrors every
// record to the OpenTelemetry log bridge. Attributes named in maskFields are
// replaced before either sink sees them.
func newHandler(serviceName string, lp *sdklog.LoggerProvider, maskFields []string, out io.Writer, level slog.Level) slog.Handler {
	if out == nil {
		out = os.Stdout
	}

	sinks := []slog.Handler{slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       level,
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})}
	if lp != nil {
		sinks = append(sinks, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp)))
	}

	mask := make(map[string]bool, len(maskFields))
	for _, f := range maskFields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			mask[f] = true
		}
	}

	return &handler{sinks: sinks, service: serviceName, mask: mask}
}

// renameAttr shortens the built-in keys and keeps only module-relative
// source paths.
func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("internal/%s:%d", rel, src.Line))
	}

	return a
}

type handler struct {
	sinks   []slog.Handler
	service string
	mask    map[string]bool
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})
	if cid := GetCorrelationID(ctx); cid != "" {
		out.AddAttrs(slog.String("_cID", cid))
	}
	out.AddAttrs(slog.String("service", h.service))

	var first error
	for _, s := range h.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, out.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redact(a)
	}
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(redacted) })
}

func (h *handler) WithGroup(name string) slog.Handler {
	return h.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *handler) derive(fn func(slog.Handler) slog.Handler) *handler {
	sinks := make([]slog.Handler, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = fn(s)
	}
	return &handler{sinks: sinks, service: h.service, mask: h.mask}
}

func (h *handler) redact(a slog.Attr) slog.Attr {
	if len(h.mask) == 0 {
		return a
	}
	if h.mask[strings.ToLower(a.Key)] {
		return slog.String(a.Key, maskedValue)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = h.redact(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	case slog.KindString:
		if s := v.String(); strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
			if masked, ok := h.redactJSON([]byte(s)); ok {
				return slog.String(a.Key, masked)
			}
		}
	case slog.KindAny:
		switch val := v.Any().(type) {
		case map[string]any, []any:
			return slog.Any(a.Key, h.redactValue(val))
		case map[string]string:
			m := make(map[string]any, len(val))
			for k, s := range val {
				m[k] = s
			}
			return slog.Any(a.Key, h.redactValue(m))
		case []byte:
			if masked, ok := h.redactJSON(val); ok {
				return slog.String(a.Key, masked)
			}
		}
	}

	return a
}

func (h *handler) redactJSON(raw []byte) (string, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	out, err := json.Marshal(h.redactValue(v))
	if err != nil {
		return "", false
	}
	return string(out), true
}

// redactValue returns a copy of v with masked keys replaced at any depth.
func (h *handler) redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if h.mask[strings.ToLower(k)] {
				out[k] = maskedValue
				continue
			}
			out[k] = h.redactValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = h.redactValue(inner)
		}
		return out
	default:
		return v
	}
}
