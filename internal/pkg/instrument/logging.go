package instrument

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const masked = "***"

// emailKeys are attribute names whose values are addresses. They are
// partially masked so operators can still tell users apart.
var emailKeys = map[string]struct{}{"email": {}, "to": {}, "identifier": {}}

type loggerOptions struct {
	serviceName string
	level       slog.Level
	provider    *sdklog.LoggerProvider
	maskFields  []string
}

func initLogging(opts loggerOptions) {
	slog.SetDefault(newLogger(os.Stdout, opts))
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func newLogger(out io.Writer, opts loggerOptions) *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       opts.level,
		AddSource:   true,
		ReplaceAttr: replaceAttr,
	})
	if opts.provider != nil {
		handler = fanoutHandler{handler, otelslog.NewHandler(
			opts.serviceName,
			otelslog.WithLoggerProvider(opts.provider),
		)}
	}

	return slog.New(&contextHandler{
		Handler:     &maskHandler{Handler: handler, m: newMasker(opts.maskFields)},
		serviceName: opts.serviceName,
	})
}

// replaceAttr shortens keys and reports the source relative to internal/.
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
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", "internal/"+rel+":"+strconv.Itoa(src.Line))
	}
	return a
}

// contextHandler stamps every record with the correlation ID and service.
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

// fanoutHandler writes each record to stdout and to the OTLP log bridge.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return lo.SomeBy(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return fanoutHandler(lo.Map(f, func(h slog.Handler, _ int) slog.Handler { return h.WithAttrs(attrs) }))
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	return fanoutHandler(lo.Map(f, func(h slog.Handler, _ int) slog.Handler { return h.WithGroup(name) }))
}

type maskHandler struct {
	slog.Handler
	m masker
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.m) == 0 {
		return h.Handler.Handle(ctx, r)
	}

	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.m.attr(a))
		return true
	})

	return h.Handler.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &maskHandler{
		Handler: h.Handler.WithAttrs(lo.Map(attrs, func(a slog.Attr, _ int) slog.Attr { return h.m.attr(a) })),
		m:       h.m,
	}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{Handler: h.Handler.WithGroup(name), m: h.m}
}

// masker hides values by lower-cased key. An email key is partially masked.
type masker map[string]struct{}

func newMasker(fields []string) masker {
	keys := lo.Map(fields, func(f string, _ int) string { return strings.ToLower(strings.TrimSpace(f)) })
	return lo.Keyify(lo.Compact(keys))
}

func (m masker) hit(key string) (full, partial bool) {
	key = strings.ToLower(key)
	if _, ok := m[key]; ok {
		if _, isEmail := emailKeys[key]; isEmail {
			return false, true
		}
		return true, false
	}
	return false, false
}

func (m masker) attr(a slog.Attr) slog.Attr {
	full, partial := m.hit(a.Key)
	switch {
	case full:
		return slog.String(a.Key, masked)
	case partial && a.Value.Kind() == slog.KindString:
		return slog.String(a.Key, maskEmail(a.Value.String()))
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		a.Value = slog.GroupValue(lo.Map(a.Value.Group(), func(ga slog.Attr, _ int) slog.Attr { return m.attr(ga) })...)
	case slog.KindString:
		if s, ok := m.jsonText([]byte(a.Value.String())); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(m.data(v))
		case map[string]string:
			a.Value = slog.AnyValue(m.data(lo.MapValues(v, func(s string, _ string) any { return s })))
		case []byte:
			if s, ok := m.jsonText(v); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}

	return a
}

// jsonText masks a JSON object or array carried as text.
func (m masker) jsonText(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", false
	}
	out, err := json.Marshal(m.data(doc))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (m masker) data(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			full, partial := m.hit(k)
			s, isString := v2.(string)
			switch {
			case full:
				out[k] = masked
			case partial && isString:
				out[k] = maskEmail(s)
			default:
				out[k] = m.data(v2)
			}
		}
		return out
	case []any:
		return lo.Map(val, func(v2 any, _ int) any { return m.data(v2) })
	default:
		return v
	}
}

// maskEmail keeps the first letter of the local part and the domain:
// "alice@example.com" becomes "a***@example.com".
func maskEmail(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" {
		return masked
	}
	return local[:1] + masked + "@" + domain
}
