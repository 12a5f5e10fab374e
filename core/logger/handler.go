package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders one flat line per record with a stable key order.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}

	fields := make(map[string]any, 16)
	for _, a := range h.attrs {
		h.collect(fields, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.collect(fields, a)
		return true
	})
	addContextFields(ctx, fields)
	h.finalize(fields, r)

	var line []byte
	if h.cfg.format == formatJSON {
		var err error
		if line, err = encodeJSON(fields, h.cfg.keyOrder); err != nil {
			return err
		}
	} else {
		line = encodeKV(fields, h.cfg.keyOrder)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// finalize fills the mandatory keys and normalizes enumerated values.
func (h *structuredHandler) finalize(fields map[string]any, r slog.Record) {
	ts := r.Time.UTC()
	fields["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	fields["level"] = normalizeLevel(r.Level.String())

	if rid, ok := fields["rid"].(string); ok {
		if compact := CompactRID(rid); compact != rid {
			if h.cfg.format == formatJSON {
				fields["rid_full"] = rid
			}
			fields["rid"] = compact
		}
	}
	if h.cfg.format == formatJSON {
		fields["ts_unix_nano"] = ts.UnixNano()
	}

	if s, _ := fields["event"].(string); s == "" {
		fields["event"] = cmpOr(r.Message, "unknown")
	}
	if s, _ := fields["component"].(string); s == "" {
		fields["component"] = "app"
	}

	for key, allowed := range enumerations {
		s, ok := fields[key].(string)
		if !ok || s == "" {
			continue
		}
		if v, valid := allowed.normalize(s); valid {
			fields[key] = v
		} else if allowed.strict {
			delete(fields, key)
		}
	}

	for k, v := range fields {
		if v == nil || v == "" {
			delete(fields, k)
		}
	}
}

func (h *structuredHandler) collect(fields map[string]any, attr slog.Attr) {
	flatten(strings.Join(h.groups, "."), attr, func(key string, val slog.Value) {
		if key == "" {
			return
		}
		if k, v, ok := normalizeAttr(key, val); ok {
			fields[k] = v
		}
	})
}

func flatten(prefix string, attr slog.Attr, fn func(string, slog.Value)) {
	key := attr.Key
	switch {
	case key == "":
		key = prefix
	case prefix != "":
		key = prefix + "." + key
	}
	val := attr.Value.Resolve()
	if val.Kind() == slog.KindGroup {
		for _, child := range val.Group() {
			flatten(key, child, fn)
		}
		return
	}
	fn(key, val)
}

// normalizeAttr converts a value to a JSON friendly form. Durations become
// integer milliseconds under a key ending in _ms.
func normalizeAttr(key string, val slog.Value) (string, any, bool) {
	switch x := val.Any().(type) {
	case nil:
		return key, nil, false
	case string:
		return key, strings.TrimSpace(x), true
	case bool, int, int64, float64:
		return key, x, true
	case uint64:
		if x > math.MaxInt64 {
			return key, x, true
		}
		return key, int64(x), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case time.Time:
		return key, x.UTC().Format(time.RFC3339Nano), true
	case error:
		return key, x.Error(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func cmpOr(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
