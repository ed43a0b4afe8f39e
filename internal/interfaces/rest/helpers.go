package rest

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solutionshark/backend/internal/domain/models"
	"github.com/solutionshark/backend/pkg/constants"
	"github.com/solutionshark/backend/pkg/errors"
)

// GetActorFromContext extracts the acting user set by the actor middleware
func GetActorFromContext(c *gin.Context) models.Actor {
	actorInterface, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return models.Actor{}
	}
	actor, ok := actorInterface.(models.Actor)
	if !ok {
		return models.Actor{}
	}
	return actor
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	errorCode := errors.GetErrorCode(err)
	message := err.Error()

	if code >= 500 {
		log.Printf("❌ ERROR [%d] %s %s: %s", code, c.Request.Method, c.Request.URL.Path, message)
	}

	c.JSON(code, gin.H{
		constants.ResponseError: message,
		constants.FieldMessage:  message,
		"code":                  errorCode,
	})
}

// MethodNotAllowed answers unsupported verbs on known routes. Wire it via
// router.NoMethod with HandleMethodNotAllowed enabled.
func MethodNotAllowed(c *gin.Context) {
	message := fmt.Sprintf("method %s not allowed on %s", c.Request.Method, c.Request.URL.Path)
	c.JSON(http.StatusMethodNotAllowed, gin.H{
		constants.ResponseError: message,
		constants.FieldMessage:  message,
		"code":                  "METHOD_NOT_ALLOWED",
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGet executes a read action and returns its result as JSON
func HandleGet(c *gin.Context, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleDelete executes a delete action and returns 204 on success
func HandleDelete(c *gin.Context, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
