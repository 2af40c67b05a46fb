package services

import (
	"context"
	"sync"
	"testing"

	"agentmesh/domain/core/entities"
	"agentmesh/infrastructure/persistence/memory"
	apperrors "agentmesh/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCoordinator(t *testing.T) (*SessionCoordinator, *memory.GraphStore) {
	t.Helper()
	sessions := memory.NewSessionRepository()
	entries := memory.NewContextEntryRepository(sessions)
	graphStore := memory.NewGraphStore()

	logger := zap.NewNop()
	contextLog := NewContextLog(sessions, entries, nil, logger)
	synthesizer := NewPathSynthesizer(graphStore, logger)
	return NewSessionCoordinator(sessions, contextLog, synthesizer, nil, logger), graphStore
}

func TestEnsureSession_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newTestCoordinator(t)

	first, err := coordinator.EnsureSession(ctx, "agent-1", "acme")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "agent-1", first.AgentID)
	assert.Equal(t, "acme", first.Tenant)
	assert.Nil(t, first.CurrentContextID)

	second, err := coordinator.EnsureSession(ctx, "agent-1", "acme")
	require.NoError(t, err)
	assert.True(t, first.ID.Equals(second.ID))
}

func TestEnsureSession_SeparatePerAgentAndTenant(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newTestCoordinator(t)

	base, err := coordinator.EnsureSession(ctx, "agent-1", "acme")
	require.NoError(t, err)

	otherAgent, err := coordinator.EnsureSession(ctx, "agent-2", "acme")
	require.NoError(t, err)
	assert.False(t, base.ID.Equals(otherAgent.ID))

	otherTenant, err := coordinator.EnsureSession(ctx, "agent-1", "globex")
	require.NoError(t, err)
	assert.False(t, base.ID.Equals(otherTenant.ID))
}

func TestEnsureSession_ConcurrentCallsConverge(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newTestCoordinator(t)

	const callers = 8
	results := make([]*entities.Session, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = coordinator.EnsureSession(ctx, "agent-1", "acme")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.True(t, results[0].ID.Equals(results[i].ID))
	}
}

func TestEnsureSession_Validation(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newTestCoordinator(t)

	_, err := coordinator.EnsureSession(ctx, "", "acme")
	assert.True(t, apperrors.IsValidation(err))

	_, err = coordinator.EnsureSession(ctx, "agent-1", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestRecordStep_AppendsToLog(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newTestCoordinator(t)

	session, err := coordinator.EnsureSession(ctx, "agent-1", "acme")
	require.NoError(t, err)

	entry, err := coordinator.RecordStep(ctx, session.ID.String(), "acme", map[string]interface{}{"goal": "summarize"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.Seq)

	next, err := coordinator.RecordStep(ctx, session.ID.String(), "acme", map[string]interface{}{"goal": "publish"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Seq)
}

func TestNextCandidates_DelegatesToSynthesizer(t *testing.T) {
	ctx := context.Background()
	coordinator, graphStore := newTestCoordinator(t)

	capability := mustCapability(t, "fetch-and-summarize")
	seedEdge(t, graphStore, capability, mustTool(t, "fetch"), mustTool(t, "summarize"), nil)

	paths, err := coordinator.NextCandidates(ctx, "fetch-and-summarize")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"fetch", "summarize"}, pathIDs(paths[0]))

	_, err = coordinator.NextCandidates(ctx, "NOT VALID")
	assert.True(t, apperrors.IsValidation(err))
}
