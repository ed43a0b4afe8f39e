package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solutionshark/backend/internal/domain/models"
)

// ApprovalService defines the interface for approval operations
type ApprovalService interface {
	Submit(ctx context.Context, solutionID string, workflowIDs []string, actor models.Actor) ([]*models.Approval, error)
	Process(ctx context.Context, approvalID, decision, notes string, actor models.Actor) (*models.Approval, error)
	GetByID(ctx context.Context, id string) (*models.Approval, error)
	List(ctx context.Context, filters models.ApprovalFilters) ([]*models.Approval, error)
	MatchingWorkflows(ctx context.Context, solutionID string) ([]*models.ApprovalWorkflow, error)
}

// ApprovalHandler handles approval API endpoints
type ApprovalHandler struct {
	svc ApprovalService
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(svc ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{svc: svc}
}

// SubmitRequest submits a solution against one or more workflows
type SubmitRequest struct {
	SolutionID  string   `json:"solutionId" binding:"required"`
	WorkflowIDs []string `json:"workflowIds" binding:"required"`
}

// ProcessRequest records a terminal decision on an approval
type ProcessRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// List handles GET /api/approvals
func (h *ApprovalHandler) List(c *gin.Context) {
	filters := models.ApprovalFilters{
		SolutionID: c.Query("solutionId"),
		Status:     c.Query("status"),
		Approver:   c.Query("approver"),
	}

	HandleGet(c, func() (interface{}, error) {
		return h.svc.List(c.Request.Context(), filters)
	})
}

// Get handles GET /api/approvals/:id
func (h *ApprovalHandler) Get(c *gin.Context) {
	HandleGet(c, func() (interface{}, error) {
		return h.svc.GetByID(c.Request.Context(), c.Param("id"))
	})
}

// Submit handles POST /api/approvals
func (h *ApprovalHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if !BindJSON(c, &req) {
		return
	}

	created, err := h.svc.Submit(c.Request.Context(), req.SolutionID, req.WorkflowIDs, GetActorFromContext(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Process handles PUT /api/approvals/:id
func (h *ApprovalHandler) Process(c *gin.Context) {
	var req ProcessRequest
	if !BindJSON(c, &req) {
		return
	}

	processed, err := h.svc.Process(c.Request.Context(), c.Param("id"), req.Status, req.Notes, GetActorFromContext(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, processed)
}

// MatchingWorkflows handles GET /api/approvals/matching. It returns the
// active workflows whose conditions hold for the given solution.
func (h *ApprovalHandler) MatchingWorkflows(c *gin.Context) {
	solutionID := c.Query("solutionId")

	HandleGet(c, func() (interface{}, error) {
		return h.svc.MatchingWorkflows(c.Request.Context(), solutionID)
	})
}
