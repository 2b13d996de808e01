package utils

import (
	"fmt"
	"time"
)

// localTimestampLayout matches the fault-log record format.
const localTimestampLayout = "2006-01-02 15:04:05"

// LocalTimestamp renders t in the local, human-readable form used by the
// fault log and operator transcript.
func LocalTimestamp(t time.Time) string {
	return t.Local().Format(localTimestampLayout)
}

// ParseRFC3339 returns a time from the provided string or an error.
func ParseRFC3339(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time: %w", err)
	}
	return t, nil
}
