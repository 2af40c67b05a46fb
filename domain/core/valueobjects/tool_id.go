package valueobjects

import (
	"errors"
	"strings"
)

// ToolID is a value object identifying a tool in the registry.
// Tool IDs are registry slugs (e.g. "web.fetch"), not UUIDs.
type ToolID struct {
	value string
}

// NewToolID creates a ToolID from a registry slug
func NewToolID(id string) (ToolID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ToolID{}, errors.New("tool ID cannot be empty")
	}
	if len(id) > 128 {
		return ToolID{}, errors.New("tool ID exceeds maximum length")
	}
	return ToolID{value: id}, nil
}

// String returns the string representation of the ToolID
func (id ToolID) String() string {
	return id.value
}

// Equals checks if two ToolIDs are equal
func (id ToolID) Equals(other ToolID) bool {
	return id.value == other.value
}

// IsZero checks if the ToolID is the zero value
func (id ToolID) IsZero() bool {
	return id.value == ""
}

// Less reports whether this ToolID sorts before the other.
// Used for the deterministic ordering of synthesized paths.
func (id ToolID) Less(other ToolID) bool {
	return id.value < other.value
}

// MarshalJSON implements json.Marshaler
func (id ToolID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ToolID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("ToolID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
