package services

import (
	"context"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
	"agentmesh/domain/events"
	apperrors "agentmesh/pkg/errors"

	"go.uber.org/zap"
)

// maxAppendAttempts bounds the internal retry budget for seq conflicts
const maxAppendAttempts = 3

// defaultHistoryLimit caps history pages when the caller asks for nothing
const defaultHistoryLimit = 20

// maxHistoryLimit is the hard ceiling on one history page
const maxHistoryLimit = 100

// ContextLog is the append-only, per-session ordered log of context
// snapshots. Appends are idempotent on identical consecutive context and
// serialized per session through the store's conditional transaction; a
// lost seq race is retried with a freshly read seq, never surfaced to the
// caller unless the retry budget runs out.
type ContextLog struct {
	sessions  ports.SessionRepository
	entries   ports.ContextEntryRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewContextLog creates a new context log service
func NewContextLog(
	sessions ports.SessionRepository,
	entries ports.ContextEntryRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ContextLog {
	return &ContextLog{
		sessions:  sessions,
		entries:   entries,
		publisher: publisher,
		logger:    logger,
	}
}

// Append records a context snapshot at the next seq for the session.
//
// When the session's current entry carries the same canonical hash the call
// is a no-op and the existing entry comes back unchanged. Otherwise the
// entry insert and the session's current-pointer swap commit in one store
// transaction; a conflicting concurrent append is detected through the
// (session, seq) uniqueness condition and retried with a re-read seq.
func (l *ContextLog) Append(ctx context.Context, sessionID string, tenant string, payload map[string]interface{}) (*entities.ContextEntry, error) {
	sid, err := valueobjects.NewSessionIDFromString(sessionID)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if tenant == "" {
		return nil, apperrors.NewValidationError("tenant is required")
	}
	if len(payload) == 0 {
		return nil, apperrors.NewValidationError("context payload cannot be empty")
	}

	hash, err := valueobjects.ComputeContextHash(payload)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	session, err := l.sessions.GetByID(ctx, sid)
	if err != nil {
		return nil, err
	}
	if session.Tenant != tenant {
		return nil, apperrors.NewNotFoundError("session").WithDetails(map[string]interface{}{
			"session_id": sessionID,
			"tenant":     tenant,
		})
	}

	var lastConflict error
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		current, err := l.entries.GetCurrent(ctx, sid)
		if err != nil {
			return nil, err
		}

		// Idempotent no-op: the snapshot already at the head of the log
		if current != nil && current.ContextHash.Equals(hash) {
			l.logger.Debug("Append is idempotent no-op",
				zap.String("sessionID", sessionID),
				zap.Int64("seq", current.Seq),
			)
			return current, nil
		}

		var nextSeq int64 = 1
		if current != nil {
			nextSeq = current.Seq + 1
		}

		entry, err := entities.NewContextEntry(sid, tenant, nextSeq, payload)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}

		err = l.entries.AppendAndSwapPointer(ctx, entry)
		if err == nil {
			l.publishAppended(ctx, entry)
			return entry, nil
		}
		if !apperrors.IsConflict(err) {
			return nil, err
		}

		// Another append won the seq slot; re-read and try the next one
		lastConflict = err
		l.logger.Debug("Append seq conflict, retrying",
			zap.String("sessionID", sessionID),
			zap.Int64("seq", nextSeq),
			zap.Int("attempt", attempt),
		)
	}

	return nil, apperrors.NewRetryExhaustedError("context append", maxAppendAttempts).
		WithCause(lastConflict).
		WithDetails(map[string]interface{}{"session_id": sessionID})
}

// GetCurrent retrieves the latest entry for a session, or nil when no
// context has been appended yet
func (l *ContextLog) GetCurrent(ctx context.Context, sessionID, tenant string) (*entities.ContextEntry, error) {
	sid, err := l.resolveSession(ctx, sessionID, tenant)
	if err != nil {
		return nil, err
	}
	return l.entries.GetCurrent(ctx, sid)
}

// GetHistory lists entries most recent first. The returned cursor resumes
// the listing after the last returned entry; an empty cursor means the
// history is exhausted.
func (l *ContextLog) GetHistory(ctx context.Context, sessionID, tenant string, limit int, cursor string) ([]entities.ContextEntry, string, error) {
	sid, err := l.resolveSession(ctx, sessionID, tenant)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return l.entries.History(ctx, sid, limit, cursor)
}

// resolveSession parses the ID and confirms the session belongs to the
// tenant. A foreign tenant sees not-found, never a hint the row exists.
func (l *ContextLog) resolveSession(ctx context.Context, sessionID, tenant string) (valueobjects.SessionID, error) {
	sid, err := valueobjects.NewSessionIDFromString(sessionID)
	if err != nil {
		return valueobjects.SessionID{}, apperrors.NewValidationError(err.Error())
	}
	session, err := l.sessions.GetByID(ctx, sid)
	if err != nil {
		return valueobjects.SessionID{}, err
	}
	if tenant != "" && session.Tenant != tenant {
		return valueobjects.SessionID{}, apperrors.NewNotFoundError("session").WithDetails(map[string]interface{}{
			"session_id": sessionID,
			"tenant":     tenant,
		})
	}
	return sid, nil
}

// publishAppended notifies downstream consumers of the new head entry.
// Publication is best effort; a broker hiccup never fails the append.
func (l *ContextLog) publishAppended(ctx context.Context, entry *entities.ContextEntry) {
	if l.publisher == nil {
		return
	}
	event := events.NewContextAppended(entry.SessionID, entry.ID, entry.Seq, entry.ContextHash.String(), entry.CreatedAt)
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.logger.Warn("Failed to publish context appended event",
			zap.String("sessionID", entry.SessionID.String()),
			zap.Int64("seq", entry.Seq),
			zap.Error(err),
		)
	}
}
