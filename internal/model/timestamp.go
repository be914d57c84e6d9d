package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wall-clock layout used by the item table and snapshot files.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a second-precision wall-clock time that serializes as
// "YYYY-MM-DD HH:MM:SS" both in JSON and in the database.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// ParseTimestamp parses s in the local time zone.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{Time: t}, nil
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// Equal compares wall-clock values, ignoring location.
func (t Timestamp) Equal(o Timestamp) bool {
	return t.String() == o.String()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		// Accept RFC 3339 as written by other tools.
		rfc, rfcErr := time.Parse(time.RFC3339, s)
		if rfcErr != nil {
			return fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
		parsed = NewTimestamp(rfc.In(time.Local))
	}
	*t = parsed
	return nil
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Timestamp{}
		return nil
	case time.Time:
		*t = NewTimestamp(v)
		return nil
	case string:
		return t.scanString(v)
	case []byte:
		return t.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
}

func (t *Timestamp) scanString(s string) error {
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return fmt.Errorf("scanning timestamp %q: %w", s, err)
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer.
func (t Timestamp) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}
