package valueobjects

import (
	"errors"
	"strings"
)

// Capability names a function a chain of tools collectively satisfies,
// e.g. "fetch-and-summarize". Capabilities are lowercase tokens.
type Capability struct {
	value string
}

// NewCapability validates and creates a Capability
func NewCapability(name string) (Capability, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Capability{}, errors.New("capability cannot be empty")
	}
	if len(name) > 128 {
		return Capability{}, errors.New("capability exceeds maximum length")
	}
	for _, r := range name {
		if !isCapabilityRune(r) {
			return Capability{}, errors.New("capability must contain only lowercase letters, digits, '.', '_' or '-'")
		}
	}
	return Capability{value: name}, nil
}

func isCapabilityRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}

// String returns the string representation of the Capability
func (c Capability) String() string {
	return c.value
}

// Equals checks if two Capabilities are equal
func (c Capability) Equals(other Capability) bool {
	return c.value == other.value
}

// IsZero checks if the Capability is the zero value
func (c Capability) IsZero() bool {
	return c.value == ""
}
