package similarity

import (
	"strconv"
	"time"
)

// staleTimestamp predates any cache TTL, so freshly created identity rows
// always read as stale until their first successful provider refresh.
const staleTimestamp = "1970-01-01T00:00:00Z"

// The driver hands back loosely typed column values. These helpers fold
// them into the types the data layer expects, treating NULL as zero.

func asInt64(v any) int64 {
	switch value := v.(type) {
	case int64:
		return value
	case int:
		return int64(value)
	case float64:
		return int64(value)
	case []byte:
		parsed, _ := strconv.ParseInt(string(value), 10, 64)
		return parsed
	case string:
		parsed, _ := strconv.ParseInt(value, 10, 64)
		return parsed
	}
	return 0
}

func asString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case []byte:
		return string(value)
	}
	return ""
}

func asBytes(v any) []byte {
	switch value := v.(type) {
	case []byte:
		return value
	case string:
		return []byte(value)
	}
	return nil
}

func asTime(v any) time.Time {
	raw := asString(v)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
