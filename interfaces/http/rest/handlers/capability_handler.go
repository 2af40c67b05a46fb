package handlers

import (
	"net/http"

	"agentmesh/application/services"
	"agentmesh/domain/core/entities"
	"agentmesh/pkg/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CapabilityHandler handles capability resolution HTTP requests
type CapabilityHandler struct {
	coordinator *services.SessionCoordinator
	logger      *zap.Logger
}

// NewCapabilityHandler creates a new capability handler
func NewCapabilityHandler(coordinator *services.SessionCoordinator, logger *zap.Logger) *CapabilityHandler {
	return &CapabilityHandler{
		coordinator: coordinator,
		logger:      logger,
	}
}

// ToolResponse represents a tool descriptor on the wire
type ToolResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// CandidatePathResponse represents one candidate path on the wire
type CandidatePathResponse struct {
	Kind            string         `json:"kind"`
	Tools           []ToolResponse `json:"tools"`
	CompositeIntent *string        `json:"composite_intent,omitempty"`
}

// NextCandidates handles GET /capabilities/{capability}/candidates
func (h *CapabilityHandler) NextCandidates(w http.ResponseWriter, r *http.Request) {
	capability := chi.URLParam(r, "capability")

	paths, err := h.coordinator.NextCandidates(r.Context(), capability)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	responses := make([]CandidatePathResponse, 0, len(paths))
	for _, path := range paths {
		responses = append(responses, pathToResponse(path))
	}

	common.RespondJSON(w, http.StatusOK, responses)
}

func pathToResponse(path entities.CandidatePath) CandidatePathResponse {
	tools := make([]ToolResponse, 0, len(path.Tools))
	for _, tool := range path.Tools {
		tools = append(tools, ToolResponse{
			ID:          tool.ID.String(),
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return CandidatePathResponse{
		Kind:            string(path.Kind),
		Tools:           tools,
		CompositeIntent: path.CompositeIntent,
	}
}
