// Package timeutil parses match timestamps. Match exports carry either
// RFC 3339 strings or epoch milliseconds (game start timestamps), and every
// value is normalized to UTC.
package timeutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// Epoch milliseconds below this are treated as seconds (before 2001-09-09
// in milliseconds is implausible for a match record).
const minEpochMillis = 1_000_000_000_000

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseTimestamp accepts RFC 3339 (with or without zone; zoneless is UTC),
// a plain date, or an integer epoch in milliseconds or seconds.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("timeutil: empty timestamp")
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return FromEpoch(n), nil
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timeutil: unrecognized timestamp %q", raw)
}

// FromEpoch converts epoch milliseconds, or seconds for small values, to UTC.
func FromEpoch(n int64) time.Time {
	if n < minEpochMillis {
		return time.Unix(n, 0).UTC()
	}
	return time.UnixMilli(n).UTC()
}

// Timestamp is a time.Time that decodes from a JSON string or number.
// It encodes as RFC 3339.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = str
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
