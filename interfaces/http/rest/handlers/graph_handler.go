package handlers

import (
	"net/http"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
	"agentmesh/pkg/common"
	apperrors "agentmesh/pkg/errors"
	"agentmesh/pkg/utils"

	"go.uber.org/zap"
)

// maxGraphBodyBytes bounds one registry write on the wire
const maxGraphBodyBytes = 256 << 10 // 256 KiB

// GraphHandler handles tool knowledge graph registry requests. These are
// the seeding endpoints the tool registry pipeline writes through; the
// synthesizer only ever reads.
type GraphHandler struct {
	graphStore ports.GraphStore
	logger     *zap.Logger
}

// NewGraphHandler creates a new graph registry handler
func NewGraphHandler(graphStore ports.GraphStore, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		graphStore: graphStore,
		logger:     logger,
	}
}

// ToolPayload represents a tool descriptor in registry requests
type ToolPayload struct {
	ID          string                 `json:"id" validate:"required,max=128"`
	Name        string                 `json:"name" validate:"omitempty,max=200"`
	Description string                 `json:"description,omitempty" validate:"omitempty,max=2000"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// RegisterEdgeRequest represents the request body for registering an edge
type RegisterEdgeRequest struct {
	Capability      string      `json:"capability" validate:"required,max=128"`
	From            ToolPayload `json:"from" validate:"required"`
	To              ToolPayload `json:"to" validate:"required"`
	CompositeIntent *string     `json:"composite_intent,omitempty" validate:"omitempty"`
}

// RegisterToolRequest represents the request body for tagging a tool
type RegisterToolRequest struct {
	Capability string      `json:"capability" validate:"required,max=128"`
	Tool       ToolPayload `json:"tool" validate:"required"`
}

// RegisterEdge handles POST /graph/edges
func (h *GraphHandler) RegisterEdge(w http.ResponseWriter, r *http.Request) {
	var req RegisterEdgeRequest
	if err := common.ParseJSONBody(r, &req, maxGraphBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	capability, err := valueobjects.NewCapability(req.Capability)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}
	from, err := payloadToTool(req.From)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}
	to, err := payloadToTool(req.To)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	edge, err := entities.NewToolEdge(from, to, capability, req.CompositeIntent)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	if err := h.graphStore.SaveEdge(r.Context(), edge); err != nil {
		h.logger.Error("Failed to save edge",
			zap.String("capability", capability.String()),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, edge)
}

// RegisterTool handles POST /graph/tools
func (h *GraphHandler) RegisterTool(w http.ResponseWriter, r *http.Request) {
	var req RegisterToolRequest
	if err := common.ParseJSONBody(r, &req, maxGraphBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	capability, err := valueobjects.NewCapability(req.Capability)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}
	tool, err := payloadToTool(req.Tool)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	if err := h.graphStore.SaveTool(r.Context(), tool, capability); err != nil {
		h.logger.Error("Failed to save tool",
			zap.String("capability", capability.String()),
			zap.String("toolID", tool.ID.String()),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, tool)
}

func payloadToTool(payload ToolPayload) (entities.ToolDescriptor, error) {
	id, err := valueobjects.NewToolID(payload.ID)
	if err != nil {
		return entities.ToolDescriptor{}, err
	}
	tool, err := entities.NewToolDescriptor(id, payload.Name)
	if err != nil {
		return entities.ToolDescriptor{}, err
	}
	tool.Description = payload.Description
	tool.Parameters = payload.Parameters
	return tool, nil
}
