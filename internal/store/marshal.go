package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamps are stored as RFC 3339 UTC text so lexicographic order in
// SQLite matches chronological order.
const timeLayout = time.RFC3339Nano

func marshalTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// marshalRaw serializes passthrough columns as a JSON object. Go's JSON
// encoder sorts map keys, so equal maps always produce identical text.
func marshalRaw(raw map[string]string) (string, error) {
	if len(raw) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("marshal raw columns: %w", err)
	}
	return string(data), nil
}

func unmarshalRaw(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var raw map[string]string
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal raw columns: %w", err)
	}
	return raw, nil
}
