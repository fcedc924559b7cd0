package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// naiveISOFormat matches timestamps produced without an explicit offset, e.g.
// "2024-05-01T12:30:45.123456". Producers that serialise naive UTC instants
// emit this form, so the queue contract accepts it alongside RFC 3339.
const naiveISOFormat = "2006-01-02T15:04:05.999999999"

// UTCTime is a UTC instant that marshals as RFC 3339 and unmarshals both
// RFC 3339 and naive ISO-8601 strings.
type UTCTime struct {
	time.Time
}

// NewUTCTime normalises t to UTC.
func NewUTCTime(t time.Time) UTCTime {
	return UTCTime{t.UTC()}
}

// MarshalJSON implements json.Marshaler.
func (t UTCTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *UTCTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseUTCTime(raw)
	if err != nil {
		return err
	}
	t.Time = parsed.Time
	return nil
}

// ParseUTCTime parses an RFC 3339 timestamp, falling back to the naive
// ISO-8601 form which is interpreted as UTC.
func ParseUTCTime(value string) (UTCTime, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return UTCTime{}, fmt.Errorf("timestamp is empty")
	}
	if ts, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return NewUTCTime(ts), nil
	}
	ts, err := time.Parse(naiveISOFormat, trimmed)
	if err != nil {
		return UTCTime{}, fmt.Errorf("invalid timestamp %q", trimmed)
	}
	return UTCTime{ts.UTC()}, nil
}
