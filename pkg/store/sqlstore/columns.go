package sqlstore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSON stores a value as a JSON text column.
type JSON[T any] struct {
	Data T
}

func (j *JSON[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		var zero T
		j.Data = zero
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("sqlstore: JSON.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &j.Data)
}

func (j JSON[T]) Value() (driver.Value, error) {
	raw, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// timestampLayout sorts lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Timestamp stores a UTC time as fixed-width text. The zero time maps to
// NULL.
type Timestamp struct {
	Time time.Time
}

func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("sqlstore: Timestamp.Scan: unsupported type %T", src)
	}
}

func (t *Timestamp) parse(value string) error {
	parsed, err := time.Parse(timestampLayout, value)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return fmt.Errorf("sqlstore: parse timestamp %q: %w", value, err)
		}
	}
	t.Time = parsed.UTC()
	return nil
}

func (t Timestamp) Value() (driver.Value, error) {
	if t.Time.IsZero() {
		return nil, nil
	}
	return t.Time.UTC().Format(timestampLayout), nil
}
