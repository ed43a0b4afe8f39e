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

// MockSolutionService is a mock implementation of the SolutionService
type MockSolutionService struct {
	mock.Mock
}

func (m *MockSolutionService) Create(ctx context.Context, solution *models.Solution, actor models.Actor) (*models.Solution, error) {
	args := m.Called(ctx, solution, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Solution), args.Error(1)
}

func (m *MockSolutionService) GetByID(ctx context.Context, id string) (*models.Solution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Solution), args.Error(1)
}

func (m *MockSolutionService) List(ctx context.Context, filters models.SolutionFilters) ([]*models.Solution, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Solution), args.Error(1)
}

func (m *MockSolutionService) Update(ctx context.Context, id string, upd models.SolutionUpdate, actor models.Actor, overrideStage bool) (*models.Solution, error) {
	args := m.Called(ctx, id, upd, actor, overrideStage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Solution), args.Error(1)
}

func (m *MockSolutionService) Delete(ctx context.Context, id string, actor models.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockSolutionService) ApprovalHistory(ctx context.Context, id string) ([]*models.ApprovalHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ApprovalHistory), args.Error(1)
}

func TestSolutionHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockSolutionService)
	handler := rest.NewSolutionHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)

		jsonBytes, _ := json.Marshal(map[string]interface{}{"name": "Harbor Expansion"})
		c.Request = httptest.NewRequest("POST", "/api/solutions", bytes.NewBuffer(jsonBytes))
		c.Request.Header.Set("Content-Type", "application/json")

		created := &models.Solution{ID: "sol-1", Name: "Harbor Expansion", Stage: string(constants.StageDraft)}
		mockService.On("Create", mock.Anything, mock.AnythingOfType("*models.Solution"), handlerActor).
			Return(created, nil).Once()

		handler.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response models.Solution
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "sol-1", response.ID)
		assert.Equal(t, string(constants.StageDraft), response.Stage)
		mockService.AssertExpectations(t)
	})

	t.Run("ValidationError", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)

		c.Request = httptest.NewRequest("POST", "/api/solutions", bytes.NewBufferString("{}"))
		c.Request.Header.Set("Content-Type", "application/json")

		mockService.On("Create", mock.Anything, mock.AnythingOfType("*models.Solution"), handlerActor).
			Return(nil, apperrors.NewValidationError("name", "name is required")).Once()

		handler.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestSolutionHandler_Get(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockSolutionService)
	handler := rest.NewSolutionHandler(mockService)

	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: "sol-1"}}
		c.Request = httptest.NewRequest("GET", "/api/solutions/sol-1", nil)

		mockService.On("GetByID", mock.Anything, "sol-1").
			Return(&models.Solution{ID: "sol-1", Name: "Harbor Expansion"}, nil).Once()

		handler.Get(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: "missing"}}
		c.Request = httptest.NewRequest("GET", "/api/solutions/missing", nil)

		mockService.On("GetByID", mock.Anything, "missing").
			Return(nil, apperrors.NewNotFoundError("solution", "missing")).Once()

		handler.Get(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestSolutionHandler_Update(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockSolutionService)
	handler := rest.NewSolutionHandler(mockService)

	t.Run("OverrideStageFlag", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)
		c.Params = gin.Params{{Key: "id", Value: "sol-1"}}

		stage := string(constants.StageApproved)
		jsonBytes, _ := json.Marshal(map[string]interface{}{"stage": stage})
		c.Request = httptest.NewRequest("PUT", "/api/solutions/sol-1?overrideStage=true", bytes.NewBuffer(jsonBytes))
		c.Request.Header.Set("Content-Type", "application/json")

		mockService.On("Update", mock.Anything, "sol-1", models.SolutionUpdate{Stage: &stage}, handlerActor, true).
			Return(&models.Solution{ID: "sol-1", Stage: stage}, nil).Once()

		handler.Update(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("DefaultNoOverride", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set(constants.ContextKeyActor, handlerActor)
		c.Params = gin.Params{{Key: "id", Value: "sol-1"}}

		name := "Renamed"
		jsonBytes, _ := json.Marshal(map[string]interface{}{"name": name})
		c.Request = httptest.NewRequest("PUT", "/api/solutions/sol-1", bytes.NewBuffer(jsonBytes))
		c.Request.Header.Set("Content-Type", "application/json")

		mockService.On("Update", mock.Anything, "sol-1", models.SolutionUpdate{Name: &name}, handlerActor, false).
			Return(&models.Solution{ID: "sol-1", Name: name}, nil).Once()

		handler.Update(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestSolutionHandler_Delete(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockSolutionService)
	handler := rest.NewSolutionHandler(mockService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyActor, handlerActor)
	c.Params = gin.Params{{Key: "id", Value: "sol-1"}}
	c.Request = httptest.NewRequest("DELETE", "/api/solutions/sol-1", nil)

	mockService.On("Delete", mock.Anything, "sol-1", handlerActor).Return(nil).Once()

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}
