package valueobjects

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// ContextHash is a 256-bit digest of the canonical serialization of a
// context payload. Two structurally equal payloads always produce the
// same hash regardless of key insertion order, which is what makes
// consecutive-append idempotence detectable.
type ContextHash struct {
	value string
}

// ComputeContextHash canonicalizes the payload and digests it.
// Canonical form is the encoding/json serialization of the payload map;
// the encoder emits map keys in sorted order at every nesting level.
func ComputeContextHash(payload map[string]interface{}) (ContextHash, error) {
	if len(payload) == 0 {
		return ContextHash{}, errors.New("context payload cannot be empty")
	}
	canonical, err := json.Marshal(payload)
	if err != nil {
		return ContextHash{}, fmt.Errorf("failed to canonicalize context payload: %w", err)
	}
	sum := blake3.Sum256(canonical)
	return ContextHash{value: hex.EncodeToString(sum[:])}, nil
}

// NewContextHashFromString creates a ContextHash from a stored hex digest
func NewContextHashFromString(s string) (ContextHash, error) {
	if len(s) != 64 {
		return ContextHash{}, errors.New("context hash must be a 64-character hex digest")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return ContextHash{}, errors.New("context hash must be valid hex")
	}
	return ContextHash{value: s}, nil
}

// String returns the hex representation of the hash
func (h ContextHash) String() string {
	return h.value
}

// Equals checks if two hashes are equal
func (h ContextHash) Equals(other ContextHash) bool {
	return h.value == other.value
}

// IsZero checks if the hash is the zero value
func (h ContextHash) IsZero() bool {
	return h.value == ""
}
