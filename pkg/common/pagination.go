package common

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Cursor pagination for the context history listing. The cursor is an
// opaque token encoding the seq of the last entry the caller saw; an empty
// cursor starts from the head of the log.

// EncodeCursor builds the opaque continuation token for a seq
func EncodeCursor(seq int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("seq:%d", seq)))
}

// DecodeCursor parses a continuation token back into a seq
func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("malformed pagination cursor")
	}
	value, ok := strings.CutPrefix(string(raw), "seq:")
	if !ok {
		return 0, fmt.Errorf("malformed pagination cursor")
	}
	seq, err := strconv.ParseInt(value, 10, 64)
	if err != nil || seq < 1 {
		return 0, fmt.Errorf("malformed pagination cursor")
	}
	return seq, nil
}

// ListParams represents cursor pagination parameters
type ListParams struct {
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

// ExtractListParams extracts pagination parameters from request
func ExtractListParams(r *http.Request) ListParams {
	params := ListParams{Limit: 20}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			if n > 100 {
				n = 100
			}
			params.Limit = n
		}
	}

	params.Cursor = r.URL.Query().Get("cursor")
	return params
}
