package middleware

import (
	"net/http"
	"strings"

	"agentmesh/pkg/auth"
	"agentmesh/pkg/common"
	apperrors "agentmesh/pkg/errors"

	"go.uber.org/zap"
)

// Authenticate creates an authentication middleware backed by the given
// JWT validator. trustGatewayHeaders is only set inside Lambda, where the
// adapter writes the pre-auth headers after API Gateway's JWT authorizer
// has run; on the plain HTTP server those headers are client-controlled
// and must never bypass local validation.
func Authenticate(validator *auth.JWTValidator, trustGatewayHeaders bool, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// API Gateway's JWT authorizer already validated the token
			if trustGatewayHeaders && r.Header.Get("X-API-Gateway-Authorized") == "true" {
				agentID := r.Header.Get("X-Agent-ID")
				tenant := r.Header.Get("X-Tenant")
				if agentID == "" || tenant == "" {
					respondUnauthorized(w, "Missing agent context from API Gateway")
					return
				}
				serveAuthenticated(w, r, next, agentID, tenant)
				return
			}

			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "Missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)

				switch err {
				case auth.ErrExpiredToken:
					respondUnauthorized(w, "Token has expired")
				case auth.ErrInvalidSignature:
					respondUnauthorized(w, "Invalid token signature")
				default:
					respondUnauthorized(w, "Invalid token")
				}
				return
			}

			serveAuthenticated(w, r, next, claims.AgentID, claims.Tenant)
		})
	}
}

func serveAuthenticated(w http.ResponseWriter, r *http.Request, next http.Handler, agentID, tenant string) {
	agentCtx := &auth.AgentContext{
		AgentID: agentID,
		Tenant:  tenant,
	}

	ctx := auth.SetAgentInContext(r.Context(), agentCtx)
	ctx = common.WithAgentID(ctx, agentID)
	ctx = common.WithTenant(ctx, tenant)

	next.ServeHTTP(w, r.WithContext(ctx))
}

// extractToken extracts the JWT token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
		return authHeader
	}
	return ""
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), message)
}
