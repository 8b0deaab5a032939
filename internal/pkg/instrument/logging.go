package instrument

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const maskedValue = "***"

// NewLogger builds the application logger: JSON to w, optionally fanned out to
// an OpenTelemetry log provider, with masking of sensitive keys and the
// correlation id attached to every record.
func NewLogger(w io.Writer, serviceName string, level slog.Level, lp *sdklog.LoggerProvider, maskFields []string) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   true,
		ReplaceAttr: replaceAttr,
	})

	var handler slog.Handler = jsonHandler
	if lp != nil {
		handler = &fanoutHandler{handlers: []slog.Handler{
			jsonHandler,
			otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp)),
		}}
	}

	return slog.New(&contextHandler{
		Handler:     &maskHandler{handler: handler, maskKeys: buildMaskKeys(maskFields)},
		serviceName: serviceName,
	})
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
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
		if _, rel, found := strings.Cut(src.File, "/internal/"); found {
			return slog.String("file", fmt.Sprintf("%s:%d", filepath.Join("internal", rel), src.Line))
		}
		return slog.Attr{}
	}
	return a
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

type contextHandler struct {
	slog.Handler
	serviceName string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.serviceName))

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), serviceName: h.serviceName}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), serviceName: h.serviceName}
}

type fanoutHandler struct {
	handlers []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		out = append(out, h.WithAttrs(attrs))
	}
	return &fanoutHandler{handlers: out}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		out = append(out, h.WithGroup(name))
	}
	return &fanoutHandler{handlers: out}
}

type maskHandler struct {
	handler  slog.Handler
	maskKeys map[string]struct{}
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, record slog.Record) error {
	if len(h.maskKeys) == 0 {
		return h.handler.Handle(ctx, record)
	}

	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		masked.AddAttrs(MaskAttr(attr, h.maskKeys))
		return true
	})

	return h.handler.Handle(ctx, masked)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		masked = append(masked, MaskAttr(a, h.maskKeys))
	}
	return &maskHandler{handler: h.handler.WithAttrs(masked), maskKeys: h.maskKeys}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{handler: h.handler.WithGroup(name), maskKeys: h.maskKeys}
}

func buildMaskKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(strings.ToLower(field))
		if field != "" {
			keys[field] = struct{}{}
		}
	}
	return keys
}

// MaskAttr replaces the value of attr, or of any nested group member or map
// entry, whose key is listed in maskKeys.
func MaskAttr(attr slog.Attr, maskKeys map[string]struct{}) slog.Attr {
	if _, found := maskKeys[strings.ToLower(attr.Key)]; found {
		return slog.String(attr.Key, maskedValue)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		masked := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			masked = append(masked, MaskAttr(ga, maskKeys))
		}
		attr.Value = slog.GroupValue(masked...)
	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case map[string]any:
			attr.Value = slog.AnyValue(MaskData(v, maskKeys))
		case []any:
			attr.Value = slog.AnyValue(MaskData(v, maskKeys))
		}
	}

	return attr
}

// MaskData walks decoded JSON and replaces values of keys listed in maskKeys.
func MaskData(v any, maskKeys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		masked := make(map[string]any, len(val))
		for k, v2 := range val {
			if _, found := maskKeys[strings.ToLower(k)]; found {
				masked[k] = maskedValue
			} else {
				masked[k] = MaskData(v2, maskKeys)
			}
		}
		return masked
	case []any:
		res := make([]any, len(val))
		for i, v2 := range val {
			res[i] = MaskData(v2, maskKeys)
		}
		return res
	default:
		return v
	}
}

// MaskKeys normalizes a configured list of field names into a lookup set.
func MaskKeys(fields []string) map[string]struct{} {
	return buildMaskKeys(fields)
}
