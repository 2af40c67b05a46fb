package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
	"agentmesh/infrastructure/persistence/memory"
	apperrors "agentmesh/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestContextLog(t *testing.T) (*ContextLog, *entities.Session) {
	t.Helper()
	sessions := memory.NewSessionRepository()
	entriesRepo := memory.NewContextEntryRepository(sessions)
	log := NewContextLog(sessions, entriesRepo, nil, zap.NewNop())

	session, err := entities.NewSession("agent-1", "acme")
	require.NoError(t, err)
	require.NoError(t, sessions.Create(context.Background(), session))
	return log, session
}

func TestAppend_SeqStartsAtOne(t *testing.T) {
	log, session := newTestContextLog(t)

	entry, err := log.Append(context.Background(), session.ID.String(), "acme", map[string]interface{}{"step": "plan"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.Seq)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.ContextHash.IsZero())
}

func TestAppend_SeqIsMonotonic(t *testing.T) {
	ctx := context.Background()
	log, session := newTestContextLog(t)

	for i := 1; i <= 5; i++ {
		entry, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{
			"step": fmt.Sprintf("step-%d", i),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(i), entry.Seq)
	}
}

func TestAppend_IdempotentOnIdenticalContext(t *testing.T) {
	ctx := context.Background()
	log, session := newTestContextLog(t)

	first, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{"a": 1.0, "b": "x"})
	require.NoError(t, err)

	// Same payload, different construction order
	second, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{"b": "x", "a": 1.0})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Seq, second.Seq)

	// A genuinely new payload advances the log again
	third, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{"a": 2.0})
	require.NoError(t, err)
	assert.Equal(t, int64(2), third.Seq)
}

func TestAppend_RepeatedEarlierContextIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	log, session := newTestContextLog(t)

	first, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{"phase": "plan"})
	require.NoError(t, err)
	_, err = log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{"phase": "act"})
	require.NoError(t, err)

	// Only the head of the log participates in idempotence
	again, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{"phase": "plan"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, again.ID)
	assert.Equal(t, int64(3), again.Seq)
}

func TestAppend_Validation(t *testing.T) {
	ctx := context.Background()
	log, session := newTestContextLog(t)

	t.Run("malformed session id", func(t *testing.T) {
		_, err := log.Append(ctx, "not-a-uuid", "acme", map[string]interface{}{"a": 1})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("empty tenant", func(t *testing.T) {
		_, err := log.Append(ctx, session.ID.String(), "", map[string]interface{}{"a": 1})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := log.Append(ctx, session.ID.String(), "acme", nil)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestAppend_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	log, session := newTestContextLog(t)

	_, err := log.Append(ctx, session.ID.String(), "other-tenant", map[string]interface{}{"a": 1})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAppend_UnknownSession(t *testing.T) {
	log, _ := newTestContextLog(t)

	_, err := log.Append(context.Background(), valueobjects.NewSessionID().String(), "acme", map[string]interface{}{"a": 1})
	assert.True(t, apperrors.IsNotFound(err))
}

// conflictingEntryRepo wraps a real repository and forces the first n
// appends to lose the seq race
type conflictingEntryRepo struct {
	ports.ContextEntryRepository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictingEntryRepo) AppendAndSwapPointer(ctx context.Context, entry *entities.ContextEntry) error {
	r.mu.Lock()
	inject := r.conflicts > 0
	if inject {
		r.conflicts--
	}
	r.mu.Unlock()

	if inject {
		return apperrors.NewConflictError("context entry seq already taken")
	}
	return r.ContextEntryRepository.AppendAndSwapPointer(ctx, entry)
}

func TestAppend_RetriesConflictThenSucceeds(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionRepository()
	repo := &conflictingEntryRepo{
		ContextEntryRepository: memory.NewContextEntryRepository(sessions),
		conflicts:              2,
	}
	log := NewContextLog(sessions, repo, nil, zap.NewNop())

	session, err := entities.NewSession("agent-1", "acme")
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, session))

	entry, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.Seq)
}

func TestAppend_RetryExhaustion(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionRepository()
	repo := &conflictingEntryRepo{
		ContextEntryRepository: memory.NewContextEntryRepository(sessions),
		conflicts:              maxAppendAttempts,
	}
	log := NewContextLog(sessions, repo, nil, zap.NewNop())

	session, err := entities.NewSession("agent-1", "acme")
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, session))

	_, err = log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{"a": 1})
	assert.True(t, apperrors.IsRetryExhausted(err))
}

func TestAppend_ConcurrentAppendsStayContiguous(t *testing.T) {
	ctx := context.Background()
	log, session := newTestContextLog(t)

	const writers = 4
	var wg sync.WaitGroup
	var mu sync.Mutex
	var appended int

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{
				"writer": fmt.Sprintf("w-%d", n),
			})
			if err != nil {
				// Losing the retry budget is acceptable under contention;
				// anything else is not
				assert.True(t, apperrors.IsRetryExhausted(err))
				return
			}
			mu.Lock()
			appended++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Greater(t, appended, 0)

	// Every landed entry occupies a distinct contiguous seq from 1
	entries, _, err := log.GetHistory(ctx, session.ID.String(), "acme", 100, "")
	require.NoError(t, err)
	require.Len(t, entries, appended)
	for i, entry := range entries {
		assert.Equal(t, int64(appended-i), entry.Seq)
	}
}

func TestGetCurrent(t *testing.T) {
	ctx := context.Background()
	log, session := newTestContextLog(t)

	t.Run("empty log returns nil", func(t *testing.T) {
		entry, err := log.GetCurrent(ctx, session.ID.String(), "acme")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("returns the head entry", func(t *testing.T) {
		_, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{"a": 1})
		require.NoError(t, err)
		latest, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{"a": 2})
		require.NoError(t, err)

		current, err := log.GetCurrent(ctx, session.ID.String(), "acme")
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, latest.ID, current.ID)
		assert.Equal(t, int64(2), current.Seq)
	})

	t.Run("foreign tenant sees not found", func(t *testing.T) {
		_, err := log.GetCurrent(ctx, session.ID.String(), "other")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestGetHistory_Pagination(t *testing.T) {
	ctx := context.Background()
	log, session := newTestContextLog(t)

	for i := 1; i <= 7; i++ {
		_, err := log.Append(ctx, session.ID.String(), "acme", map[string]interface{}{
			"step": fmt.Sprintf("s-%d", i),
		})
		require.NoError(t, err)
	}

	page1, cursor, err := log.GetHistory(ctx, session.ID.String(), "acme", 3, "")
	require.NoError(t, err)
	require.Len(t, page1, 3)
	assert.Equal(t, int64(7), page1[0].Seq)
	assert.Equal(t, int64(5), page1[2].Seq)
	require.NotEmpty(t, cursor)

	page2, cursor, err := log.GetHistory(ctx, session.ID.String(), "acme", 3, cursor)
	require.NoError(t, err)
	require.Len(t, page2, 3)
	assert.Equal(t, int64(4), page2[0].Seq)
	assert.Equal(t, int64(2), page2[2].Seq)
	require.NotEmpty(t, cursor)

	page3, cursor, err := log.GetHistory(ctx, session.ID.String(), "acme", 3, cursor)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, int64(1), page3[0].Seq)
	assert.Empty(t, cursor)
}

func TestGetHistory_MalformedCursor(t *testing.T) {
	log, session := newTestContextLog(t)

	_, _, err := log.GetHistory(context.Background(), session.ID.String(), "acme", 10, "garbage!!")
	assert.True(t, apperrors.IsValidation(err))
}
