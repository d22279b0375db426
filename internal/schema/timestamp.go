package schema

import (
	"fmt"
	"math"
	"time"
)

// parseTimestamp accepts the timestamp encodings found in documents:
// RFC 3339 strings (what this service writes), unix seconds, and
// {seconds, nanoseconds} objects (the managed store's export format).
// A missing value is the zero time.
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", t)
		}
		return parsed.UTC(), nil
	case float64:
		sec, frac := math.Modf(t)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	default:
		m, ok := asMap(v)
		if !ok {
			return time.Time{}, fmt.Errorf("expected timestamp, got %T", v)
		}
		return parseTimestampObject(m)
	}
}

func parseTimestampObject(m map[string]any) (time.Time, error) {
	sec, ok := number(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp object without seconds")
	}
	nsec, _ := number(m, "nanoseconds", "_nanoseconds")
	return time.Unix(int64(sec), int64(nsec)).UTC(), nil
}

func number(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int64:
			return float64(n), true
		case int:
			return float64(n), true
		}
	}
	return 0, false
}
