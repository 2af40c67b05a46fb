package entities

import (
	"errors"
	"time"

	"agentmesh/domain/core/valueobjects"

	"github.com/google/uuid"
)

// ContextEntry is one immutable snapshot in a session's context history.
// Entries are created by append only, never mutated, and Seq runs 1..N
// per session with no gaps.
type ContextEntry struct {
	ID          string                   `json:"id"`
	SessionID   valueobjects.SessionID   `json:"session_id"`
	Tenant      string                   `json:"tenant"`
	Seq         int64                    `json:"seq"`
	Context     map[string]interface{}   `json:"context"`
	ContextHash valueobjects.ContextHash `json:"context_hash"`
	CreatedAt   time.Time                `json:"created_at"`
}

// NewContextEntry builds the entry for the next slot in a session's log.
// The hash is computed here so storage layers never re-derive it.
func NewContextEntry(sessionID valueobjects.SessionID, tenant string, seq int64, context map[string]interface{}) (*ContextEntry, error) {
	if sessionID.IsZero() {
		return nil, errors.New("context entry requires a session ID")
	}
	if tenant == "" {
		return nil, errors.New("context entry requires a tenant")
	}
	if seq < 1 {
		return nil, errors.New("context entry seq must start at 1")
	}
	hash, err := valueobjects.ComputeContextHash(context)
	if err != nil {
		return nil, err
	}
	return &ContextEntry{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Tenant:      tenant,
		Seq:         seq,
		Context:     context,
		ContextHash: hash,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
