package entities

import (
	"errors"

	"agentmesh/domain/core/valueobjects"
)

// ToolDescriptor is the immutable canonical description of a tool.
// It is owned by the graph store; consumers only pass it around by value.
type ToolDescriptor struct {
	ID          valueobjects.ToolID    `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// NewToolDescriptor creates a validated ToolDescriptor
func NewToolDescriptor(id valueobjects.ToolID, name string) (ToolDescriptor, error) {
	if id.IsZero() {
		return ToolDescriptor{}, errors.New("tool descriptor requires an ID")
	}
	if name == "" {
		name = id.String()
	}
	return ToolDescriptor{ID: id, Name: name}, nil
}

// ToolEdge is a directed, capability-tagged relation between two tools.
// The composite intent is optional and only meaningful when every edge of
// a chain carries the same value.
type ToolEdge struct {
	From            ToolDescriptor          `json:"from"`
	To              ToolDescriptor          `json:"to"`
	Capability      valueobjects.Capability `json:"capability"`
	CompositeIntent *string                 `json:"composite_intent,omitempty"`
}

// NewToolEdge creates a validated ToolEdge. Self-loops are rejected here,
// at the graph store boundary, so consumers never see one.
func NewToolEdge(from, to ToolDescriptor, capability valueobjects.Capability, compositeIntent *string) (ToolEdge, error) {
	if from.ID.IsZero() || to.ID.IsZero() {
		return ToolEdge{}, errors.New("tool edge requires both endpoints")
	}
	if from.ID.Equals(to.ID) {
		return ToolEdge{}, errors.New("tool edge cannot be a self-loop")
	}
	if capability.IsZero() {
		return ToolEdge{}, errors.New("tool edge requires a capability")
	}
	return ToolEdge{
		From:            from,
		To:              to,
		Capability:      capability,
		CompositeIntent: compositeIntent,
	}, nil
}
