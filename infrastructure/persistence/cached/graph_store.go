// Package cached wraps persistence ports with read-through caching.
package cached

import (
	"context"
	"fmt"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"

	"go.uber.org/zap"
)

// GraphStore decorates a GraphStore with a read-through cache on the two
// capability queries. The graph changes rarely relative to how often the
// synthesizer reads it, so a short TTL absorbs most of the read load while
// writes invalidate the capability's keys immediately.
type GraphStore struct {
	inner      ports.GraphStore
	cache      ports.Cache
	ttlSeconds int
	logger     *zap.Logger
}

// NewGraphStore wraps the inner store with caching
func NewGraphStore(inner ports.GraphStore, cache ports.Cache, ttlSeconds int, logger *zap.Logger) ports.GraphStore {
	return &GraphStore{
		inner:      inner,
		cache:      cache,
		ttlSeconds: ttlSeconds,
		logger:     logger,
	}
}

// QueryEdges retrieves all edges tagged with the capability, from cache
// when fresh
func (s *GraphStore) QueryEdges(ctx context.Context, capability valueobjects.Capability) ([]entities.ToolEdge, error) {
	key := edgesKey(capability)
	if value, ok := s.cache.Get(ctx, key); ok {
		if edges, ok := value.([]entities.ToolEdge); ok {
			return edges, nil
		}
	}

	edges, err := s.inner.QueryEdges(ctx, capability)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, edges, s.ttlSeconds); err != nil {
		s.logger.Warn("Failed to cache edges", zap.String("capability", capability.String()), zap.Error(err))
	}
	return edges, nil
}

// QueryIsolatedTools retrieves capability-tagged tools with no edge for it,
// from cache when fresh
func (s *GraphStore) QueryIsolatedTools(ctx context.Context, capability valueobjects.Capability) ([]entities.ToolDescriptor, error) {
	key := isolatedKey(capability)
	if value, ok := s.cache.Get(ctx, key); ok {
		if tools, ok := value.([]entities.ToolDescriptor); ok {
			return tools, nil
		}
	}

	tools, err := s.inner.QueryIsolatedTools(ctx, capability)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, tools, s.ttlSeconds); err != nil {
		s.logger.Warn("Failed to cache isolated tools", zap.String("capability", capability.String()), zap.Error(err))
	}
	return tools, nil
}

// SaveEdge persists the edge and invalidates the capability's cached reads
func (s *GraphStore) SaveEdge(ctx context.Context, edge entities.ToolEdge) error {
	if err := s.inner.SaveEdge(ctx, edge); err != nil {
		return err
	}
	s.invalidate(ctx, edge.Capability)
	return nil
}

// SaveTool records the tool and invalidates the capability's cached reads
func (s *GraphStore) SaveTool(ctx context.Context, tool entities.ToolDescriptor, capability valueobjects.Capability) error {
	if err := s.inner.SaveTool(ctx, tool, capability); err != nil {
		return err
	}
	s.invalidate(ctx, capability)
	return nil
}

func (s *GraphStore) invalidate(ctx context.Context, capability valueobjects.Capability) {
	for _, key := range []string{edgesKey(capability), isolatedKey(capability)} {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to invalidate graph cache",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}

func edgesKey(capability valueobjects.Capability) string {
	return fmt.Sprintf("graph:edges:%s", capability.String())
}

func isolatedKey(capability valueobjects.Capability) string {
	return fmt.Sprintf("graph:isolated:%s", capability.String())
}
