package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/solutionshark/backend/internal/domain/models"
	"github.com/solutionshark/backend/internal/interfaces/rest"
	"github.com/solutionshark/backend/pkg/constants"
	apperrors "github.com/solutionshark/backend/pkg/errors"
)

// MockWorkflowService is a mock implementation of the WorkflowService
type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) Create(ctx context.Context, w *models.ApprovalWorkflow, actor models.Actor) (*models.ApprovalWorkflow, error) {
	args := m.Called(ctx, w, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApprovalWorkflow), args.Error(1)
}

func (m *MockWorkflowService) GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApprovalWorkflow), args.Error(1)
}

func (m *MockWorkflowService) List(ctx context.Context, filters models.WorkflowFilters) ([]*models.ApprovalWorkflow, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ApprovalWorkflow), args.Error(1)
}

func (m *MockWorkflowService) Update(ctx context.Context, id string, upd models.WorkflowUpdate, actor models.Actor) (*models.ApprovalWorkflow, error) {
	args := m.Called(ctx, id, upd, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApprovalWorkflow), args.Error(1)
}

func (m *MockWorkflowService) Delete(ctx context.Context, id string, actor models.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockWorkflowService) MoveStep(ctx context.Context, workflowID, stepID, direction string, actor models.Actor) (*models.ApprovalWorkflow, error) {
	args := m.Called(ctx, workflowID, stepID, direction, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApprovalWorkflow), args.Error(1)
}

func TestWorkflowHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockWorkflowService)
	handler := rest.NewWorkflowHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)

		jsonBytes, _ := json.Marshal(map[string]interface{}{
			"name": "High Value Review",
			"steps": []map[string]interface{}{
				{"name": "Finance Review", "order": 1, "assignedApprovers": []string{"bob"}},
			},
		})
		c.Request = httptest.NewRequest("POST", "/api/workflows", bytes.NewBuffer(jsonBytes))
		c.Request.Header.Set("Content-Type", "application/json")

		created := &models.ApprovalWorkflow{ID: "wf-1", Name: "High Value Review", IsActive: true}
		mockService.On("Create", mock.Anything, mock.AnythingOfType("*models.ApprovalWorkflow"), handlerActor).
			Return(created, nil).Once()

		handler.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response models.ApprovalWorkflow
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "wf-1", response.ID)
		assert.True(t, response.IsActive)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidCondition", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)

		jsonBytes, _ := json.Marshal(map[string]interface{}{"name": "Bad"})
		c.Request = httptest.NewRequest("POST", "/api/workflows", bytes.NewBuffer(jsonBytes))
		c.Request.Header.Set("Content-Type", "application/json")

		mockService.On("Create", mock.Anything, mock.AnythingOfType("*models.ApprovalWorkflow"), handlerActor).
			Return(nil, apperrors.NewInvalidConditionError("budget", "contains", "1000", "contains does not apply to numeric fields")).Once()

		handler.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestWorkflowHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockWorkflowService)
	handler := rest.NewWorkflowHandler(mockService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/workflows?isActive=true&search=finance", nil)

	active := true
	expected := []*models.ApprovalWorkflow{{ID: "wf-1", Name: "Finance"}}
	mockService.On("List", mock.Anything,
		models.WorkflowFilters{Search: "finance", IsActive: &active}).
		Return(expected, nil).Once()

	handler.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestWorkflowHandler_MoveStep(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockWorkflowService)
	handler := rest.NewWorkflowHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)
		c.Params = gin.Params{{Key: "id", Value: "wf-1"}, {Key: "stepId", Value: "step-2"}}

		jsonBytes, _ := json.Marshal(rest.MoveStepRequest{Direction: "up"})
		c.Request = httptest.NewRequest("POST", "/api/workflows/wf-1/steps/step-2/move", bytes.NewBuffer(jsonBytes))
		c.Request.Header.Set("Content-Type", "application/json")

		moved := &models.ApprovalWorkflow{ID: "wf-1"}
		mockService.On("MoveStep", mock.Anything, "wf-1", "step-2", "up", handlerActor).
			Return(moved, nil).Once()

		handler.MoveStep(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingDirection", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)
		c.Params = gin.Params{{Key: "id", Value: "wf-1"}, {Key: "stepId", Value: "step-2"}}

		c.Request = httptest.NewRequest("POST", "/api/workflows/wf-1/steps/step-2/move", bytes.NewBufferString("{}"))
		c.Request.Header.Set("Content-Type", "application/json")

		handler.MoveStep(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWorkflowHandler_Delete(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockWorkflowService)
	handler := rest.NewWorkflowHandler(mockService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyActor, handlerActor)
	c.Params = gin.Params{{Key: "id", Value: "wf-1"}}
	c.Request = httptest.NewRequest("DELETE", "/api/workflows/wf-1", nil)

	mockService.On("Delete", mock.Anything, "wf-1", handlerActor).Return(nil).Once()

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}
