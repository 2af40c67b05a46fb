package utils

import "time"

// Timestamps are stored and served at nanosecond precision so context
// entries appended within the same second still order correctly.

// FormatTimestamp renders a time for storage rows and API responses
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp parses a timestamp produced by FormatTimestamp
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
