package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solutionshark/backend/internal/domain/models"
)

// WorkflowService defines the interface for workflow definition operations
type WorkflowService interface {
	Create(ctx context.Context, w *models.ApprovalWorkflow, actor models.Actor) (*models.ApprovalWorkflow, error)
	GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error)
	List(ctx context.Context, filters models.WorkflowFilters) ([]*models.ApprovalWorkflow, error)
	Update(ctx context.Context, id string, upd models.WorkflowUpdate, actor models.Actor) (*models.ApprovalWorkflow, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
	MoveStep(ctx context.Context, workflowID, stepID, direction string, actor models.Actor) (*models.ApprovalWorkflow, error)
}

// WorkflowHandler handles workflow definition API endpoints
type WorkflowHandler struct {
	svc WorkflowService
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(svc WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// MoveStepRequest reorders one step within a workflow
type MoveStepRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// List handles GET /api/workflows
func (h *WorkflowHandler) List(c *gin.Context) {
	var filters models.WorkflowFilters
	filters.Search = c.Query("search")
	if v := c.Query("isActive"); v != "" {
		active := v == "true"
		filters.IsActive = &active
	}
	if v := c.Query("isArchived"); v != "" {
		archived := v == "true"
		filters.IsArchived = &archived
	}

	HandleGet(c, func() (interface{}, error) {
		return h.svc.List(c.Request.Context(), filters)
	})
}

// Get handles GET /api/workflows/:id
func (h *WorkflowHandler) Get(c *gin.Context) {
	HandleGet(c, func() (interface{}, error) {
		return h.svc.GetByID(c.Request.Context(), c.Param("id"))
	})
}

// Create handles POST /api/workflows
func (h *WorkflowHandler) Create(c *gin.Context) {
	var workflow models.ApprovalWorkflow
	if !BindJSON(c, &workflow) {
		return
	}

	created, err := h.svc.Create(c.Request.Context(), &workflow, GetActorFromContext(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT /api/workflows/:id
func (h *WorkflowHandler) Update(c *gin.Context) {
	var upd models.WorkflowUpdate
	if !BindJSON(c, &upd) {
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), upd, GetActorFromContext(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/workflows/:id
func (h *WorkflowHandler) Delete(c *gin.Context) {
	HandleDelete(c, func() error {
		return h.svc.Delete(c.Request.Context(), c.Param("id"), GetActorFromContext(c))
	})
}

// MoveStep handles POST /api/workflows/:id/steps/:stepId/move
func (h *WorkflowHandler) MoveStep(c *gin.Context) {
	var req MoveStepRequest
	if !BindJSON(c, &req) {
		return
	}

	updated, err := h.svc.MoveStep(c.Request.Context(), c.Param("id"), c.Param("stepId"), req.Direction, GetActorFromContext(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
