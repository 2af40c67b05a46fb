package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
	apperrors "agentmesh/pkg/errors"
)

// SessionRepository is an in-memory SessionRepository. It enforces the same
// (agent, tenant) uniqueness the DynamoDB guard row does, under one mutex.
type SessionRepository struct {
	mu      sync.RWMutex
	byID    map[string]entities.Session
	byAgent map[string]string // "tenant\x00agent" -> session id
}

// NewSessionRepository creates an empty in-memory session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		byID:    make(map[string]entities.Session),
		byAgent: make(map[string]string),
	}
}

// Create persists a new session, conflicting when the (agent, tenant)
// pair already has one
func (r *SessionRepository) Create(ctx context.Context, session *entities.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	guardKey := agentKey(session.Tenant, session.AgentID)
	if _, exists := r.byAgent[guardKey]; exists {
		return apperrors.NewConflictError("session already exists for agent").
			WithDetails(map[string]interface{}{
				"agent_id": session.AgentID,
				"tenant":   session.Tenant,
			})
	}
	if _, exists := r.byID[session.ID.String()]; exists {
		return apperrors.NewConflictError("session id already exists").
			WithDetails(map[string]interface{}{"session_id": session.ID.String()})
	}

	r.byAgent[guardKey] = session.ID.String()
	r.byID[session.ID.String()] = cloneSession(*session)
	return nil
}

// GetByID retrieves a session by its ID
func (r *SessionRepository) GetByID(ctx context.Context, id valueobjects.SessionID) (*entities.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.byID[id.String()]
	if !ok {
		return nil, apperrors.NewNotFoundError("session").WithDetails(map[string]interface{}{
			"session_id": id.String(),
		})
	}
	copied := cloneSession(session)
	return &copied, nil
}

// GetByAgent retrieves the session for an (agent, tenant) pair
func (r *SessionRepository) GetByAgent(ctx context.Context, agentID, tenant string) (*entities.Session, error) {
	r.mu.RLock()
	sessionID, ok := r.byAgent[agentKey(tenant, agentID)]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("session").WithDetails(map[string]interface{}{
			"agent_id": agentID,
			"tenant":   tenant,
		})
	}

	id, err := valueobjects.NewSessionIDFromString(sessionID)
	if err != nil {
		return nil, fmt.Errorf("corrupt session index for agent %s: %w", agentID, err)
	}
	return r.GetByID(ctx, id)
}

// swapPointer is used by the in-memory context log to update the session's
// current pointer inside the append critical section
func (r *SessionRepository) swapPointer(sessionID valueobjects.SessionID, entryID string, updatedAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byID[sessionID.String()]
	if !ok {
		return false
	}
	session.CurrentContextID = &entryID
	session.UpdatedAt = updatedAt
	r.byID[sessionID.String()] = session
	return true
}

func cloneSession(s entities.Session) entities.Session {
	if s.CurrentContextID != nil {
		id := *s.CurrentContextID
		s.CurrentContextID = &id
	}
	return s
}

func agentKey(tenant, agentID string) string {
	return tenant + "\x00" + agentID
}

var _ ports.SessionRepository = (*SessionRepository)(nil)
