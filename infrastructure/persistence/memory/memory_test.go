package memory

import (
	"context"
	"testing"

	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
	apperrors "agentmesh/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCapabilityT(t *testing.T, name string) valueobjects.Capability {
	t.Helper()
	capability, err := valueobjects.NewCapability(name)
	require.NoError(t, err)
	return capability
}

func mustToolT(t *testing.T, id string) entities.ToolDescriptor {
	t.Helper()
	toolID, err := valueobjects.NewToolID(id)
	require.NoError(t, err)
	tool, err := entities.NewToolDescriptor(toolID, id)
	require.NoError(t, err)
	return tool
}

func TestSessionRepository_CreateEnforcesAgentUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	first, err := entities.NewSession("agent-1", "acme")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	duplicate, err := entities.NewSession("agent-1", "acme")
	require.NoError(t, err)
	err = repo.Create(ctx, duplicate)
	assert.True(t, apperrors.IsConflict(err))

	// Same agent under another tenant is a different session
	otherTenant, err := entities.NewSession("agent-1", "globex")
	require.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, otherTenant))
}

func TestSessionRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	session, err := entities.NewSession("agent-1", "acme")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, session))

	byID, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, session.ID.Equals(byID.ID))

	byAgent, err := repo.GetByAgent(ctx, "agent-1", "acme")
	require.NoError(t, err)
	assert.True(t, session.ID.Equals(byAgent.ID))

	_, err = repo.GetByAgent(ctx, "agent-1", "globex")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestContextEntryRepository_AppendConflictsOnTakenSeq(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionRepository()
	repo := NewContextEntryRepository(sessions)

	session, err := entities.NewSession("agent-1", "acme")
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, session))

	first, err := entities.NewContextEntry(session.ID, "acme", 1, map[string]interface{}{"a": 1})
	require.NoError(t, err)
	require.NoError(t, repo.AppendAndSwapPointer(ctx, first))

	rival, err := entities.NewContextEntry(session.ID, "acme", 1, map[string]interface{}{"b": 2})
	require.NoError(t, err)
	err = repo.AppendAndSwapPointer(ctx, rival)
	assert.True(t, apperrors.IsConflict(err))
}

func TestContextEntryRepository_AppendSwapsSessionPointer(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionRepository()
	repo := NewContextEntryRepository(sessions)

	session, err := entities.NewSession("agent-1", "acme")
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, session))

	entry, err := entities.NewContextEntry(session.ID, "acme", 1, map[string]interface{}{"a": 1})
	require.NoError(t, err)
	require.NoError(t, repo.AppendAndSwapPointer(ctx, entry))

	updated, err := sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.CurrentContextID)
	assert.Equal(t, entry.ID, *updated.CurrentContextID)
	assert.True(t, updated.HasContext())
}

func TestContextEntryRepository_AppendToUnknownSession(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionRepository()
	repo := NewContextEntryRepository(sessions)

	orphan, err := entities.NewSession("agent-1", "acme")
	require.NoError(t, err)

	entry, err := entities.NewContextEntry(orphan.ID, "acme", 1, map[string]interface{}{"a": 1})
	require.NoError(t, err)
	err = repo.AppendAndSwapPointer(ctx, entry)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGraphStore_IsolatedToolResolution(t *testing.T) {
	ctx := context.Background()
	store := NewGraphStore()

	capability := mustCapabilityT(t, "summarize")
	from := mustToolT(t, "fetch")
	to := mustToolT(t, "digest")
	edge, err := entities.NewToolEdge(from, to, capability, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveEdge(ctx, edge))

	solo := mustToolT(t, "solo")
	require.NoError(t, store.SaveTool(ctx, solo, capability))
	// Edge participants tagged in the index must not count as isolated
	require.NoError(t, store.SaveTool(ctx, from, capability))

	isolated, err := store.QueryIsolatedTools(ctx, capability)
	require.NoError(t, err)
	require.Len(t, isolated, 1)
	assert.Equal(t, "solo", isolated[0].ID.String())

	edges, err := store.QueryEdges(ctx, capability)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}
