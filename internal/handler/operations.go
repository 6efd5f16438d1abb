package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paygate/internal/domain"
	"paygate/internal/service"
)

// OperationsHandler exposes processor calls that need operator attention.
type OperationsHandler struct {
	operations *service.OperationsService
}

// NewOperationsHandler creates a new OperationsHandler.
func NewOperationsHandler(operations *service.OperationsService) *OperationsHandler {
	return &OperationsHandler{operations: operations}
}

// UnresolvedResponse lists unsettled processor calls.
type UnresolvedResponse struct {
	Operations []domain.PendingOperation `json:"operations"`
}

// ListUnresolved handles GET /v1/operations/unresolved
func (h *OperationsHandler) ListUnresolved(c *gin.Context) {
	ops, err := h.operations.Unresolved(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if ops == nil {
		ops = []domain.PendingOperation{}
	}

	respondJSON(c, http.StatusOK, UnresolvedResponse{Operations: ops})
}

// Resolve handles POST /v1/orders/:id/operations/:op/resolve
func (h *OperationsHandler) Resolve(c *gin.Context) {
	if err := h.operations.Resolve(c.Request.Context(), c.Param("op"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
