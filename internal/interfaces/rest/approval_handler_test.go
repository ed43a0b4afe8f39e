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

// MockApprovalService is a mock implementation of the ApprovalService
type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) Submit(ctx context.Context, solutionID string, workflowIDs []string, actor models.Actor) ([]*models.Approval, error) {
	args := m.Called(ctx, solutionID, workflowIDs, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Approval), args.Error(1)
}

func (m *MockApprovalService) Process(ctx context.Context, approvalID, decision, notes string, actor models.Actor) (*models.Approval, error) {
	args := m.Called(ctx, approvalID, decision, notes, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Approval), args.Error(1)
}

func (m *MockApprovalService) GetByID(ctx context.Context, id string) (*models.Approval, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Approval), args.Error(1)
}

func (m *MockApprovalService) List(ctx context.Context, filters models.ApprovalFilters) ([]*models.Approval, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Approval), args.Error(1)
}

func (m *MockApprovalService) MatchingWorkflows(ctx context.Context, solutionID string) ([]*models.ApprovalWorkflow, error) {
	args := m.Called(ctx, solutionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ApprovalWorkflow), args.Error(1)
}

var handlerActor = models.Actor{ID: "alice", Name: "Alice"}

func TestApprovalHandler_Submit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockApprovalService)
	handler := rest.NewApprovalHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)

		reqBody := rest.SubmitRequest{SolutionID: "sol-1", WorkflowIDs: []string{"wf-1", "wf-2"}}
		jsonBytes, _ := json.Marshal(reqBody)
		c.Request = httptest.NewRequest("POST", "/api/approvals", bytes.NewBuffer(jsonBytes))
		c.Request.Header.Set("Content-Type", "application/json")

		created := []*models.Approval{
			{ID: "apr-1", SolutionID: "sol-1", WorkflowID: "wf-1", Status: constants.ApprovalStatusPending},
			{ID: "apr-2", SolutionID: "sol-1", WorkflowID: "wf-2", Status: constants.ApprovalStatusPending},
		}
		mockService.On("Submit", mock.Anything, "sol-1", []string{"wf-1", "wf-2"}, handlerActor).
			Return(created, nil).Once()

		handler.Submit(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response []*models.Approval
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response, 2)
		mockService.AssertExpectations(t)
	})

	t.Run("SolutionNotFound", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)

		reqBody := rest.SubmitRequest{SolutionID: "missing", WorkflowIDs: []string{"wf-1"}}
		jsonBytes, _ := json.Marshal(reqBody)
		c.Request = httptest.NewRequest("POST", "/api/approvals", bytes.NewBuffer(jsonBytes))
		c.Request.Header.Set("Content-Type", "application/json")

		mockService.On("Submit", mock.Anything, "missing", []string{"wf-1"}, handlerActor).
			Return(nil, apperrors.NewNotFoundError("solution", "missing")).Once()

		handler.Submit(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingBody", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)

		c.Request = httptest.NewRequest("POST", "/api/approvals", bytes.NewBufferString("{}"))
		c.Request.Header.Set("Content-Type", "application/json")

		handler.Submit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestApprovalHandler_Process(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockApprovalService)
	handler := rest.NewApprovalHandler(mockService)

	t.Run("Approve", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)
		c.Params = gin.Params{{Key: "id", Value: "apr-1"}}

		reqBody := rest.ProcessRequest{Status: constants.ApprovalStatusApproved}
		jsonBytes, _ := json.Marshal(reqBody)
		c.Request = httptest.NewRequest("PUT", "/api/approvals/apr-1", bytes.NewBuffer(jsonBytes))
		c.Request.Header.Set("Content-Type", "application/json")

		processed := &models.Approval{ID: "apr-1", Status: constants.ApprovalStatusApproved}
		mockService.On("Process", mock.Anything, "apr-1", constants.ApprovalStatusApproved, "", handlerActor).
			Return(processed, nil).Once()

		handler.Process(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("RejectionWithoutNotes", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)
		c.Params = gin.Params{{Key: "id", Value: "apr-1"}}

		reqBody := rest.ProcessRequest{Status: constants.ApprovalStatusRejected}
		jsonBytes, _ := json.Marshal(reqBody)
		c.Request = httptest.NewRequest("PUT", "/api/approvals/apr-1", bytes.NewBuffer(jsonBytes))
		c.Request.Header.Set("Content-Type", "application/json")

		mockService.On("Process", mock.Anything, "apr-1", constants.ApprovalStatusRejected, "", handlerActor).
			Return(nil, apperrors.NewValidationError("notes", "notes are required when rejecting")).Once()

		handler.Process(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestApprovalHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockApprovalService)
	handler := rest.NewApprovalHandler(mockService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/approvals?solutionId=sol-1&status=pending", nil)

	expected := []*models.Approval{{ID: "apr-1", SolutionID: "sol-1"}}
	mockService.On("List", mock.Anything,
		models.ApprovalFilters{SolutionID: "sol-1", Status: "pending"}).
		Return(expected, nil).Once()

	handler.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
