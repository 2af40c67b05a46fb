package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agentmesh/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func newTestValidator(t *testing.T) *auth.JWTValidator {
	t.Helper()
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: testSecret,
		Issuer:    "agentmesh",
	})
	require.NoError(t, err)
	return validator
}

func newTestToken(t *testing.T, agentID, tenant string) string {
	t.Helper()
	generator, err := auth.NewJWTGenerator(auth.JWTConfig{
		SecretKey: testSecret,
		Issuer:    "agentmesh",
	}, time.Hour)
	require.NoError(t, err)
	token, err := generator.GenerateToken(agentID, tenant)
	require.NoError(t, err)
	return token
}

// capture records the agent context the middleware installed, so tests can
// assert both the status code and the identity that reached the handler.
func capture(agentCtx **auth.AgentContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if agent, err := auth.GetAgentFromContext(r.Context()); err == nil {
			*agentCtx = agent
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_ValidToken(t *testing.T) {
	var agentCtx *auth.AgentContext
	handler := Authenticate(newTestValidator(t), false, zap.NewNop())(capture(&agentCtx))

	r := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	r.Header.Set("Authorization", "Bearer "+newTestToken(t, "agent-1", "acme"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, agentCtx)
	assert.Equal(t, "agent-1", agentCtx.AgentID)
	assert.Equal(t, "acme", agentCtx.Tenant)
}

func TestAuthenticate_MissingToken(t *testing.T) {
	handler := Authenticate(newTestValidator(t), false, zap.NewNop())(capture(new(*auth.AgentContext)))

	r := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_GatewayHeadersIgnoredOutsideLambda(t *testing.T) {
	// Without the Lambda trust flag the pre-auth headers are just client
	// input; a tokenless request carrying them must still be rejected.
	var agentCtx *auth.AgentContext
	handler := Authenticate(newTestValidator(t), false, zap.NewNop())(capture(&agentCtx))

	r := httptest.NewRequest("POST", "/api/v1/sessions", nil)
	r.Header.Set("X-API-Gateway-Authorized", "true")
	r.Header.Set("X-Agent-ID", "attacker-agent")
	r.Header.Set("X-Tenant", "victim-tenant")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, agentCtx)
}

func TestAuthenticate_GatewayHeadersCannotOverrideTokenIdentity(t *testing.T) {
	// Even alongside a valid token, spoofed headers must not replace the
	// identity the token carries when gateway trust is off.
	var agentCtx *auth.AgentContext
	handler := Authenticate(newTestValidator(t), false, zap.NewNop())(capture(&agentCtx))

	r := httptest.NewRequest("POST", "/api/v1/sessions", nil)
	r.Header.Set("Authorization", "Bearer "+newTestToken(t, "agent-1", "acme"))
	r.Header.Set("X-API-Gateway-Authorized", "true")
	r.Header.Set("X-Agent-ID", "attacker-agent")
	r.Header.Set("X-Tenant", "victim-tenant")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, agentCtx)
	assert.Equal(t, "agent-1", agentCtx.AgentID)
	assert.Equal(t, "acme", agentCtx.Tenant)
}

func TestAuthenticate_GatewayHeadersTrustedInLambda(t *testing.T) {
	var agentCtx *auth.AgentContext
	handler := Authenticate(newTestValidator(t), true, zap.NewNop())(capture(&agentCtx))

	r := httptest.NewRequest("POST", "/api/v1/sessions", nil)
	r.Header.Set("X-API-Gateway-Authorized", "true")
	r.Header.Set("X-Agent-ID", "agent-1")
	r.Header.Set("X-Tenant", "acme")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, agentCtx)
	assert.Equal(t, "agent-1", agentCtx.AgentID)
	assert.Equal(t, "acme", agentCtx.Tenant)
}

func TestAuthenticate_GatewayHeadersIncomplete(t *testing.T) {
	handler := Authenticate(newTestValidator(t), true, zap.NewNop())(capture(new(*auth.AgentContext)))

	r := httptest.NewRequest("POST", "/api/v1/sessions", nil)
	r.Header.Set("X-API-Gateway-Authorized", "true")
	r.Header.Set("X-Agent-ID", "agent-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
