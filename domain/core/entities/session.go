package entities

import (
	"errors"
	"time"

	"agentmesh/domain/core/valueobjects"
)

// Session is one agent's conversation with the platform. There is exactly
// one session per (agent, tenant) pair; the store enforces the uniqueness.
type Session struct {
	ID               valueobjects.SessionID `json:"id"`
	Tenant           string                 `json:"tenant"`
	AgentID          string                 `json:"agent_id"`
	CurrentContextID *string                `json:"current_context_id,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// NewSession creates a session for an agent within a tenant.
// CurrentContextID stays nil until the first context append.
func NewSession(agentID, tenant string) (*Session, error) {
	if agentID == "" {
		return nil, errors.New("session requires an agent ID")
	}
	if tenant == "" {
		return nil, errors.New("session requires a tenant")
	}
	now := time.Now().UTC()
	return &Session{
		ID:        valueobjects.NewSessionID(),
		Tenant:    tenant,
		AgentID:   agentID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasContext reports whether any context has been appended yet
func (s *Session) HasContext() bool {
	return s.CurrentContextID != nil
}
