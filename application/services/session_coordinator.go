package services

import (
	"context"
	"time"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/events"
	apperrors "agentmesh/pkg/errors"

	"go.uber.org/zap"
)

// SessionCoordinator is the façade the agent-facing service talks to. It
// composes the context log and the path synthesizer and holds no state of
// its own.
type SessionCoordinator struct {
	sessions    ports.SessionRepository
	contextLog  *ContextLog
	synthesizer *PathSynthesizer
	publisher   ports.EventPublisher
	logger      *zap.Logger
}

// NewSessionCoordinator creates a new session coordinator
func NewSessionCoordinator(
	sessions ports.SessionRepository,
	contextLog *ContextLog,
	synthesizer *PathSynthesizer,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *SessionCoordinator {
	return &SessionCoordinator{
		sessions:    sessions,
		contextLog:  contextLog,
		synthesizer: synthesizer,
		publisher:   publisher,
		logger:      logger,
	}
}

// EnsureSession returns the session for an (agent, tenant) pair, creating
// it on first interaction. Concurrent creation attempts converge on one
// row: the store reports the unique-constraint conflict and the loser
// re-fetches the winner's session.
func (c *SessionCoordinator) EnsureSession(ctx context.Context, agentID, tenant string) (*entities.Session, error) {
	if agentID == "" {
		return nil, apperrors.NewValidationError("agent ID is required")
	}
	if tenant == "" {
		return nil, apperrors.NewValidationError("tenant is required")
	}

	existing, err := c.sessions.GetByAgent(ctx, agentID, tenant)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	session, err := entities.NewSession(agentID, tenant)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := c.sessions.Create(ctx, session); err != nil {
		if apperrors.IsConflict(err) {
			// Another request created the row between our read and write
			return c.sessions.GetByAgent(ctx, agentID, tenant)
		}
		return nil, err
	}

	c.logger.Info("Session created",
		zap.String("sessionID", session.ID.String()),
		zap.String("agentID", agentID),
		zap.String("tenant", tenant),
	)
	c.publishCreated(ctx, session)

	return session, nil
}

// RecordStep appends a context snapshot to the session's log
func (c *SessionCoordinator) RecordStep(ctx context.Context, sessionID, tenant string, payload map[string]interface{}) (*entities.ContextEntry, error) {
	return c.contextLog.Append(ctx, sessionID, tenant, payload)
}

// NextCandidates resolves the candidate tool paths for a capability
func (c *SessionCoordinator) NextCandidates(ctx context.Context, capability string) ([]entities.CandidatePath, error) {
	return c.synthesizer.Synthesize(ctx, capability)
}

func (c *SessionCoordinator) publishCreated(ctx context.Context, session *entities.Session) {
	if c.publisher == nil {
		return
	}
	event := events.NewSessionCreated(session.ID, session.Tenant, session.AgentID, time.Now().UTC())
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("Failed to publish session created event",
			zap.String("sessionID", session.ID.String()),
			zap.Error(err),
		)
	}
}
