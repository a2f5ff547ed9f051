package timex

import (
	"encoding/json"
	"time"
)

// EpochMillis normalizes a raw backend timestamp value to epoch milliseconds.
//
// Backends report times in different shapes depending on the driver and on
// whether the write has been acknowledged yet: a native time.Time, a numeric
// epoch-millis value (float64 after a JSON round trip, int64 otherwise), or
// nothing at all for an optimistic local record. The boolean reports whether
// a usable value was present.
func EpochMillis(v any) (int64, bool) {
	switch value := v.(type) {
	case time.Time:
		return value.UnixMilli(), true
	case *time.Time:
		if value == nil {
			return 0, false
		}
		return value.UnixMilli(), true
	case int64:
		return value, true
	case int:
		return int64(value), true
	case float64:
		return int64(value), true
	case json.Number:
		n, err := value.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
