package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

// Date accepts either a calendar date ("2025-01-01", as sent by HTML date
// inputs) or a full RFC3339 timestamp.
type Date time.Time

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			*d = Date(t.UTC())
			return nil
		}
	}

	return fmt.Errorf("%w %q", ErrInvalidDate, raw)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).UTC().Format(time.RFC3339))
}

func (d Date) Time() time.Time {
	return time.Time(d)
}
