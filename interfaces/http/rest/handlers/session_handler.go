package handlers

import (
	"net/http"

	"agentmesh/application/services"
	"agentmesh/domain/core/entities"
	"agentmesh/pkg/auth"
	"agentmesh/pkg/common"
	apperrors "agentmesh/pkg/errors"
	"agentmesh/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxContextBodyBytes bounds one context snapshot on the wire
const maxContextBodyBytes = 1 << 20 // 1 MiB

// SessionHandler handles session and context log HTTP requests
type SessionHandler struct {
	coordinator *services.SessionCoordinator
	contextLog  *services.ContextLog
	logger      *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	coordinator *services.SessionCoordinator,
	contextLog *services.ContextLog,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		coordinator: coordinator,
		contextLog:  contextLog,
		logger:      logger,
	}
}

// SessionResponse represents a session on the wire
type SessionResponse struct {
	ID               string  `json:"id"`
	Tenant           string  `json:"tenant"`
	AgentID          string  `json:"agent_id"`
	CurrentContextID *string `json:"current_context_id,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// ContextEntryResponse represents a context entry on the wire
type ContextEntryResponse struct {
	ID          string                 `json:"id"`
	SessionID   string                 `json:"session_id"`
	Seq         int64                  `json:"seq"`
	Context     map[string]interface{} `json:"context"`
	ContextHash string                 `json:"context_hash"`
	CreatedAt   string                 `json:"created_at"`
}

// RecordStepRequest represents the request body for appending context
type RecordStepRequest struct {
	Context map[string]interface{} `json:"context"`
}

// EnsureSession handles POST /sessions
func (h *SessionHandler) EnsureSession(w http.ResponseWriter, r *http.Request) {
	agentCtx, err := auth.GetAgentFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "Unauthorized")
		return
	}

	session, err := h.coordinator.EnsureSession(r.Context(), agentCtx.AgentID, agentCtx.Tenant)
	if err != nil {
		h.logger.Error("Failed to ensure session",
			zap.String("agentID", agentCtx.AgentID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, sessionToResponse(session))
}

// RecordStep handles POST /sessions/{sessionID}/context
func (h *SessionHandler) RecordStep(w http.ResponseWriter, r *http.Request) {
	agentCtx, err := auth.GetAgentFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "Unauthorized")
		return
	}

	var req RecordStepRequest
	if err := common.ParseJSONBody(r, &req, maxContextBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Invalid request body: "+err.Error())
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	entry, err := h.coordinator.RecordStep(r.Context(), sessionID, agentCtx.Tenant, req.Context)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, entryToResponse(*entry))
}

// GetCurrentContext handles GET /sessions/{sessionID}/context/current
func (h *SessionHandler) GetCurrentContext(w http.ResponseWriter, r *http.Request) {
	agentCtx, err := auth.GetAgentFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "Unauthorized")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	entry, err := h.contextLog.GetCurrent(r.Context(), sessionID, agentCtx.Tenant)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if entry == nil {
		common.RespondError(w, http.StatusNotFound, string(apperrors.ErrorTypeNotFound), "session has no context yet")
		return
	}

	common.RespondJSON(w, http.StatusOK, entryToResponse(*entry))
}

// GetContextHistory handles GET /sessions/{sessionID}/context
func (h *SessionHandler) GetContextHistory(w http.ResponseWriter, r *http.Request) {
	agentCtx, err := auth.GetAgentFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "Unauthorized")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	params := common.ExtractListParams(r)

	entries, nextCursor, err := h.contextLog.GetHistory(r.Context(), sessionID, agentCtx.Tenant, params.Limit, params.Cursor)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	responses := make([]ContextEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, entryToResponse(entry))
	}

	common.RespondWithMeta(w, http.StatusOK, responses, &common.MetaInfo{
		NextCursor: nextCursor,
	})
}

func sessionToResponse(session *entities.Session) SessionResponse {
	return SessionResponse{
		ID:               session.ID.String(),
		Tenant:           session.Tenant,
		AgentID:          session.AgentID,
		CurrentContextID: session.CurrentContextID,
		CreatedAt:        utils.FormatTimestamp(session.CreatedAt),
		UpdatedAt:        utils.FormatTimestamp(session.UpdatedAt),
	}
}

func entryToResponse(entry entities.ContextEntry) ContextEntryResponse {
	return ContextEntryResponse{
		ID:          entry.ID,
		SessionID:   entry.SessionID.String(),
		Seq:         entry.Seq,
		Context:     entry.Context,
		ContextHash: entry.ContextHash.String(),
		CreatedAt:   utils.FormatTimestamp(entry.CreatedAt),
	}
}
