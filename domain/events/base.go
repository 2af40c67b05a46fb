package events

import (
	"time"

	"agentmesh/domain/core/valueobjects"
)

// SourceAgentmesh is the event source attached to outbound notifications
const SourceAgentmesh = "agentmesh.core"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// SessionCreated is raised when an agent's session row is first created
type SessionCreated struct {
	BaseEvent
	SessionID valueobjects.SessionID `json:"session_id"`
	Tenant    string                 `json:"tenant"`
	AgentID   string                 `json:"agent_id"`
}

// NewSessionCreated creates a SessionCreated event
func NewSessionCreated(sessionID valueobjects.SessionID, tenant, agentID string, timestamp time.Time) SessionCreated {
	return SessionCreated{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   "session.created",
			Timestamp:   timestamp,
		},
		SessionID: sessionID,
		Tenant:    tenant,
		AgentID:   agentID,
	}
}

// ContextAppended is raised after a context entry commits to the log.
// Idempotent no-op appends do not raise it.
type ContextAppended struct {
	BaseEvent
	SessionID   valueobjects.SessionID `json:"session_id"`
	EntryID     string                 `json:"entry_id"`
	Seq         int64                  `json:"seq"`
	ContextHash string                 `json:"context_hash"`
}

// NewContextAppended creates a ContextAppended event
func NewContextAppended(sessionID valueobjects.SessionID, entryID string, seq int64, contextHash string, timestamp time.Time) ContextAppended {
	return ContextAppended{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   "context.appended",
			Timestamp:   timestamp,
		},
		SessionID:   sessionID,
		EntryID:     entryID,
		Seq:         seq,
		ContextHash: contextHash,
	}
}
