package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Time handles the store's timestamp format: UTC ISO-8601 with millisecond
// precision, e.g. "2024-02-06T18:30:00.000Z". Backups written by earlier
// exports may carry other RFC 3339 variants or date-only values.
type Time struct {
	time.Time
}

const (
	TimeLayout     = "2006-01-02T15:04:05.000Z"
	DateOnlyLayout = "2006-01-02"
)

// NewTime wraps a time.Time, normalizing to UTC millisecond precision so
// that a marshal/unmarshal round trip is the identity.
func NewTime(t time.Time) Time {
	return Time{t.UTC().Truncate(time.Millisecond)}
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return t.Parse(s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(TimeLayout))
}

// Parse parses a stored time string, trying full datetime first, then date-only.
func (t *Time) Parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	parsed, err2 := time.Parse(DateOnlyLayout, s)
	if err2 == nil {
		t.Time = parsed
		return nil
	}
	return fmt.Errorf("cannot parse time %q: %w", s, err)
}

// ParseTime parses a stored time string into a time.Time.
func ParseTime(s string) (time.Time, error) {
	var t Time
	if err := t.Parse(s); err != nil {
		return time.Time{}, err
	}
	return t.Time, nil
}
