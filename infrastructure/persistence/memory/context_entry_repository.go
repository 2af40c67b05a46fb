package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
	"agentmesh/pkg/common"
	apperrors "agentmesh/pkg/errors"
)

// ContextEntryRepository is an in-memory ContextEntryRepository. Appends
// conflict on a taken seq slot exactly like the DynamoDB transaction does,
// and the session pointer swap happens under the same lock so readers never
// observe a half-applied append.
type ContextEntryRepository struct {
	mu       sync.RWMutex
	entries  map[string]map[int64]entities.ContextEntry // session id -> seq -> entry
	sessions *SessionRepository
}

// NewContextEntryRepository creates an in-memory context log backed by the
// given session repository for pointer swaps
func NewContextEntryRepository(sessions *SessionRepository) *ContextEntryRepository {
	return &ContextEntryRepository{
		entries:  make(map[string]map[int64]entities.ContextEntry),
		sessions: sessions,
	}
}

// GetCurrent retrieves the latest entry for a session, or nil when the
// log is still empty
func (r *ContextEntryRepository) GetCurrent(ctx context.Context, sessionID valueobjects.SessionID) (*entities.ContextEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.entries[sessionID.String()]
	if len(log) == 0 {
		return nil, nil
	}
	var maxSeq int64
	for seq := range log {
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	entry := log[maxSeq]
	return &entry, nil
}

// AppendAndSwapPointer atomically inserts the entry and repoints the
// session's current_context_id at it
func (r *ContextEntryRepository) AppendAndSwapPointer(ctx context.Context, entry *entities.ContextEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sid := entry.SessionID.String()
	if _, taken := r.entries[sid][entry.Seq]; taken {
		return apperrors.NewConflictError("context entry seq already taken").
			WithDetails(map[string]interface{}{
				"session_id": sid,
				"seq":        entry.Seq,
			})
	}
	if !r.sessions.swapPointer(entry.SessionID, entry.ID, time.Now().UTC()) {
		return apperrors.NewNotFoundError("session").WithDetails(map[string]interface{}{
			"session_id": entry.SessionID.String(),
		})
	}

	if r.entries[sid] == nil {
		r.entries[sid] = make(map[int64]entities.ContextEntry)
	}
	r.entries[sid][entry.Seq] = *entry
	return nil
}

// History lists entries most recent first with cursor pagination
func (r *ContextEntryRepository) History(ctx context.Context, sessionID valueobjects.SessionID, limit int, cursor string) ([]entities.ContextEntry, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	before := int64(0)
	if cursor != "" {
		seq, err := common.DecodeCursor(cursor)
		if err != nil {
			return nil, "", apperrors.NewValidationError(err.Error())
		}
		before = seq
	}

	log := r.entries[sessionID.String()]
	seqs := make([]int64, 0, len(log))
	for seq := range log {
		if before > 0 && seq >= before {
			continue
		}
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] > seqs[j] })

	entries := make([]entities.ContextEntry, 0, limit)
	for _, seq := range seqs {
		if len(entries) == limit {
			break
		}
		entries = append(entries, log[seq])
	}

	nextCursor := ""
	if len(entries) == limit && len(seqs) > limit {
		nextCursor = common.EncodeCursor(entries[len(entries)-1].Seq)
	}
	return entries, nextCursor, nil
}

var _ ports.ContextEntryRepository = (*ContextEntryRepository)(nil)
