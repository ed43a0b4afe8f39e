package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solutionshark/backend/internal/domain/models"
)

// SolutionService defines the interface for solution operations
type SolutionService interface {
	Create(ctx context.Context, solution *models.Solution, actor models.Actor) (*models.Solution, error)
	GetByID(ctx context.Context, id string) (*models.Solution, error)
	List(ctx context.Context, filters models.SolutionFilters) ([]*models.Solution, error)
	Update(ctx context.Context, id string, upd models.SolutionUpdate, actor models.Actor, overrideStage bool) (*models.Solution, error)
	Delete(ctx context.Context, id string, actor models.Actor) error
	ApprovalHistory(ctx context.Context, id string) ([]*models.ApprovalHistory, error)
}

// SolutionHandler handles solution API endpoints
type SolutionHandler struct {
	svc SolutionService
}

// NewSolutionHandler creates a new SolutionHandler
func NewSolutionHandler(svc SolutionService) *SolutionHandler {
	return &SolutionHandler{svc: svc}
}

// List handles GET /api/solutions
func (h *SolutionHandler) List(c *gin.Context) {
	filters := models.SolutionFilters{
		Stage:  c.Query("stage"),
		Status: c.Query("status"),
		Search: c.Query("search"),
	}

	HandleGet(c, func() (interface{}, error) {
		return h.svc.List(c.Request.Context(), filters)
	})
}

// Get handles GET /api/solutions/:id
func (h *SolutionHandler) Get(c *gin.Context) {
	HandleGet(c, func() (interface{}, error) {
		return h.svc.GetByID(c.Request.Context(), c.Param("id"))
	})
}

// Create handles POST /api/solutions
func (h *SolutionHandler) Create(c *gin.Context) {
	var solution models.Solution
	if !BindJSON(c, &solution) {
		return
	}

	created, err := h.svc.Create(c.Request.Context(), &solution, GetActorFromContext(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT /api/solutions/:id. The overrideStage query flag
// permits direct stage sets outside the state machine.
func (h *SolutionHandler) Update(c *gin.Context) {
	var upd models.SolutionUpdate
	if !BindJSON(c, &upd) {
		return
	}

	overrideStage := c.Query("overrideStage") == "true"
	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), upd, GetActorFromContext(c), overrideStage)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/solutions/:id
func (h *SolutionHandler) Delete(c *gin.Context) {
	HandleDelete(c, func() error {
		return h.svc.Delete(c.Request.Context(), c.Param("id"), GetActorFromContext(c))
	})
}

// History handles GET /api/solutions/:id/history
func (h *SolutionHandler) History(c *gin.Context) {
	HandleGet(c, func() (interface{}, error) {
		return h.svc.ApprovalHistory(c.Request.Context(), c.Param("id"))
	})
}
