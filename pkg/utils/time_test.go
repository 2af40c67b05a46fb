package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampRoundTrip(t *testing.T) {
	original := time.Date(2026, 8, 29, 10, 30, 0, 123456789, time.UTC)

	parsed, err := ParseTimestamp(FormatTimestamp(original))
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed), "nanosecond precision must survive the round trip")
}

func TestFormatTimestamp_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2026, 8, 29, 15, 0, 0, 0, loc)

	formatted := FormatTimestamp(local)
	assert.Equal(t, "2026-08-29T10:00:00Z", formatted)
}

func TestParseTimestamp_Malformed(t *testing.T) {
	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}
