// Package memory provides in-memory implementations of the persistence
// ports. They mirror the DynamoDB stores' conflict semantics exactly, which
// makes them suitable for tests and local development without AWS.
package memory

import (
	"context"
	"fmt"
	"sync"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
)

// GraphStore is an in-memory GraphStore keyed by capability
type GraphStore struct {
	mu    sync.RWMutex
	edges map[string]map[string]entities.ToolEdge      // capability -> edge key -> edge
	tools map[string]map[string]entities.ToolDescriptor // capability -> tool id -> tool
}

// NewGraphStore creates an empty in-memory graph store
func NewGraphStore() *GraphStore {
	return &GraphStore{
		edges: make(map[string]map[string]entities.ToolEdge),
		tools: make(map[string]map[string]entities.ToolDescriptor),
	}
}

// QueryEdges retrieves all edges tagged with the capability
func (s *GraphStore) QueryEdges(ctx context.Context, capability valueobjects.Capability) ([]entities.ToolEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partition := s.edges[capability.String()]
	edges := make([]entities.ToolEdge, 0, len(partition))
	for _, edge := range partition {
		edges = append(edges, edge)
	}
	return edges, nil
}

// QueryIsolatedTools retrieves capability-tagged tools with no edge for it
func (s *GraphStore) QueryIsolatedTools(ctx context.Context, capability valueobjects.Capability) ([]entities.ToolDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	onEdges := make(map[string]bool)
	for _, edge := range s.edges[capability.String()] {
		onEdges[edge.From.ID.String()] = true
		onEdges[edge.To.ID.String()] = true
	}

	var tools []entities.ToolDescriptor
	for id, tool := range s.tools[capability.String()] {
		if onEdges[id] {
			continue
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// SaveEdge persists an edge, overwriting any previous edge between the
// same tools for the capability
func (s *GraphStore) SaveEdge(ctx context.Context, edge entities.ToolEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	capKey := edge.Capability.String()
	if s.edges[capKey] == nil {
		s.edges[capKey] = make(map[string]entities.ToolEdge)
	}
	edgeKey := fmt.Sprintf("%s#%s", edge.From.ID.String(), edge.To.ID.String())
	s.edges[capKey][edgeKey] = edge
	return nil
}

// SaveTool records the tool in the capability's auxiliary index
func (s *GraphStore) SaveTool(ctx context.Context, tool entities.ToolDescriptor, capability valueobjects.Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	capKey := capability.String()
	if s.tools[capKey] == nil {
		s.tools[capKey] = make(map[string]entities.ToolDescriptor)
	}
	s.tools[capKey][tool.ID.String()] = tool
	return nil
}

var _ ports.GraphStore = (*GraphStore)(nil)
