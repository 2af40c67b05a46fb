package entities

import (
	"errors"
	"strings"
)

// PathKind distinguishes multi-tool chains from standalone tools
type PathKind string

const (
	PathKindChain      PathKind = "chain"
	PathKindSingleTool PathKind = "single_tool"
)

// CandidatePath is a derived execution candidate for a capability.
// It is never persisted; the synthesizer rebuilds it from the edge set.
type CandidatePath struct {
	Kind            PathKind         `json:"kind"`
	Tools           []ToolDescriptor `json:"tools"`
	CompositeIntent *string          `json:"composite_intent,omitempty"`
}

// NewChainPath creates a chain candidate from an ordered tool sequence.
// Chains carry a composite intent only when every edge along the chain
// agreed on one; callers pass nil otherwise.
func NewChainPath(tools []ToolDescriptor, compositeIntent *string) (CandidatePath, error) {
	if len(tools) < 2 {
		return CandidatePath{}, errors.New("chain requires at least two tools")
	}
	seen := make(map[string]bool, len(tools))
	for _, tool := range tools {
		if seen[tool.ID.String()] {
			return CandidatePath{}, errors.New("chain cannot repeat a tool")
		}
		seen[tool.ID.String()] = true
	}
	return CandidatePath{
		Kind:            PathKindChain,
		Tools:           tools,
		CompositeIntent: compositeIntent,
	}, nil
}

// NewSingleToolPath creates a single-tool candidate
func NewSingleToolPath(tool ToolDescriptor) (CandidatePath, error) {
	if tool.ID.IsZero() {
		return CandidatePath{}, errors.New("single tool candidate requires a tool")
	}
	return CandidatePath{
		Kind:  PathKindSingleTool,
		Tools: []ToolDescriptor{tool},
	}, nil
}

// SequenceKey returns the ordered tool-id sequence as a single string.
// Two traversals that produce the identical ordered tool list collapse
// to the same key, and the key doubles as the lexicographic tie-breaker.
func (p CandidatePath) SequenceKey() string {
	ids := make([]string, len(p.Tools))
	for i, tool := range p.Tools {
		ids[i] = tool.ID.String()
	}
	return strings.Join(ids, "\x1f")
}

// Len returns the number of tools on the path
func (p CandidatePath) Len() int {
	return len(p.Tools)
}
