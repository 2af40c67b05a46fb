package ports

import (
	"context"

	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
	"agentmesh/domain/events"
)

// GraphStore defines the capability-scoped view of the tool knowledge graph.
// This is a port in hexagonal architecture - the synthesizer doesn't know
// about the implementation.
type GraphStore interface {
	// QueryEdges retrieves all edges tagged with the capability
	QueryEdges(ctx context.Context, capability valueobjects.Capability) ([]entities.ToolEdge, error)

	// QueryIsolatedTools retrieves tools tagged with the capability that
	// have no incoming or outgoing edge for it
	QueryIsolatedTools(ctx context.Context, capability valueobjects.Capability) ([]entities.ToolDescriptor, error)

	// SaveEdge persists an edge (used by registry seeding, not the core read path)
	SaveEdge(ctx context.Context, edge entities.ToolEdge) error

	// SaveTool records a tool as carrying the capability in the auxiliary index
	SaveTool(ctx context.Context, tool entities.ToolDescriptor, capability valueobjects.Capability) error
}

// SessionRepository defines the interface for session persistence.
// Create must enforce the (agent_id, tenant) uniqueness invariant and
// report a conflict when another writer won the race.
type SessionRepository interface {
	// Create persists a new session; conflicts on an existing (agent, tenant) row
	Create(ctx context.Context, session *entities.Session) error

	// GetByID retrieves a session by its ID
	GetByID(ctx context.Context, id valueobjects.SessionID) (*entities.Session, error)

	// GetByAgent retrieves the session for an (agent, tenant) pair
	GetByAgent(ctx context.Context, agentID, tenant string) (*entities.Session, error)
}

// ContextEntryRepository defines the interface for the append-only context log.
// AppendAndSwapPointer is the critical section of the log: the entry insert
// (conditional on the (session, seq) slot being free) and the session's
// current-pointer update commit in one transaction or not at all.
type ContextEntryRepository interface {
	// GetCurrent retrieves the latest entry for a session, or nil when the
	// log is still empty
	GetCurrent(ctx context.Context, sessionID valueobjects.SessionID) (*entities.ContextEntry, error)

	// AppendAndSwapPointer atomically inserts the entry and repoints the
	// session's current_context_id at it; conflicts when the seq slot is taken
	AppendAndSwapPointer(ctx context.Context, entry *entities.ContextEntry) error

	// History retrieves entries most recent first. The returned cursor
	// restarts the listing after the last returned entry; empty means done.
	History(ctx context.Context, sessionID valueobjects.SessionID, limit int, cursor string) ([]entities.ContextEntry, string, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
