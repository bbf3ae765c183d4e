package logbook

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Timestamp holds either a native instant or date text as it was received.
// Text is resolved lazily; text that never parses behaves like a missing date.
type Timestamp struct {
	instant time.Time
	text    string
}

func At(t time.Time) Timestamp {
	return Timestamp{instant: t}
}

func FromText(s string) Timestamp {
	return Timestamp{text: s}
}

// TimestampFromPtr maps a nullable database column onto a Timestamp.
func TimestampFromPtr(t *time.Time) Timestamp {
	if t == nil {
		return Timestamp{}
	}
	return At(*t)
}

// IsZero reports whether neither an instant nor text was supplied.
func (t Timestamp) IsZero() bool {
	return t.instant.IsZero() && t.text == ""
}

// Time resolves the timestamp. ok is false for missing or unparsable values.
func (t Timestamp) Time() (time.Time, bool) {
	if !t.instant.IsZero() {
		return t.instant, true
	}
	return parseTimeText(t.text)
}

// Ptr returns the resolved instant, or nil, for nullable columns.
func (t Timestamp) Ptr() *time.Time {
	v, ok := t.Time()
	if !ok {
		return nil
	}
	return &v
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if v, ok := t.Time(); ok {
		return json.Marshal(v.Format(time.RFC3339Nano))
	}
	if t.text != "" {
		return json.Marshal(t.text)
	}
	return []byte("null"), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = timestampOf(decodeScalar(bytes.TrimSpace(b)))
	return nil
}

// timestampOf accepts what a decoded JSON document or a caller may hold:
// time.Time, date text, or epoch milliseconds.
func timestampOf(v any) Timestamp {
	switch x := v.(type) {
	case Timestamp:
		return x
	case time.Time:
		return At(x)
	case *time.Time:
		return TimestampFromPtr(x)
	case string:
		if strings.TrimSpace(x) == "" {
			return Timestamp{}
		}
		if parsed, ok := parseTimeText(x); ok {
			return At(parsed)
		}
		return FromText(x)
	case float64:
		return At(time.UnixMilli(int64(x)).UTC())
	case json.Number:
		if ms, err := x.Int64(); err == nil {
			return At(time.UnixMilli(ms).UTC())
		}
	}
	return Timestamp{}
}

func parseTimeText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
