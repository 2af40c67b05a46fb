package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	for _, seq := range []int64{1, 42, 1 << 40} {
		cursor := EncodeCursor(seq)
		decoded, err := DecodeCursor(cursor)
		require.NoError(t, err)
		assert.Equal(t, seq, decoded)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	cases := []string{
		"not base64 !!",
		"aGVsbG8",           // decodes but lacks the seq prefix
		EncodeCursor(0)[:4], // truncated
	}
	for _, cursor := range cases {
		_, err := DecodeCursor(cursor)
		assert.Error(t, err, "cursor %q should be rejected", cursor)
	}
}

func TestDecodeCursor_RejectsNonPositiveSeq(t *testing.T) {
	_, err := DecodeCursor(EncodeCursor(0))
	assert.Error(t, err)
	_, err = DecodeCursor(EncodeCursor(-5))
	assert.Error(t, err)
}

func TestExtractListParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/history", nil)
		params := ExtractListParams(r)
		assert.Equal(t, 20, params.Limit)
		assert.Empty(t, params.Cursor)
	})

	t.Run("explicit values", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/history?limit=5&cursor=abc", nil)
		params := ExtractListParams(r)
		assert.Equal(t, 5, params.Limit)
		assert.Equal(t, "abc", params.Cursor)
	})

	t.Run("limit capped", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/history?limit=5000", nil)
		params := ExtractListParams(r)
		assert.Equal(t, 100, params.Limit)
	})

	t.Run("invalid limit ignored", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/history?limit=-3", nil)
		params := ExtractListParams(r)
		assert.Equal(t, 20, params.Limit)
	})
}
