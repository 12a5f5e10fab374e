package logger

import "strings"

// enumeration restricts a field to known values. Unknown values of a strict
// enumeration are dropped; others are kept as written.
type enumeration struct {
	values map[string]struct{}
	strict bool
}

func enum(strict bool, values ...string) enumeration {
	e := enumeration{values: make(map[string]struct{}, len(values)), strict: strict}
	for _, v := range values {
		e.values[v] = struct{}{}
	}
	return e
}

func (e enumeration) normalize(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	_, ok := e.values[s]
	return s, ok
}

var enumerations = map[string]enumeration{
	"status":  enum(false, "ok", "fail", "skip", "retry", "rate_limited", "cancelled"),
	"outcome": enum(true, "ok", "fail", "cancelled", "rate_limited", "delivered", "not_found", "failed", "stale"),
}

func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case "", "info":
		return "INFO"
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	}
	return strings.ToUpper(level)
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"cb_key",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"session_id",
	"kind",
	"from",
	"to",
	"correlation_id",
	"mode",
	"strategy",
	"cause",
	"locator",
	"size",
	"path",
	"listen",
	"public_url",
	"driver",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"retryable",
	"attempts",
	"backoff_ms",
}
