package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutionshark/backend/internal/domain/models"
	"github.com/solutionshark/backend/internal/interfaces/middleware"
	"github.com/solutionshark/backend/pkg/constants"
)

func actorTestRouter(captured *models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/protected", middleware.RequireActor(), func(c *gin.Context) {
		if v, ok := c.Get(constants.ContextKeyActor); ok {
			*captured = v.(models.Actor)
		}
		c.Status(http.StatusOK)
	})
	return r
}

func signActorToken(t *testing.T, secret, subject, name string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"name": name,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestRequireActor(t *testing.T) {
	t.Setenv("AUTH_SECRET", "test-secret")

	t.Run("BearerToken", func(t *testing.T) {
		var actor models.Actor
		r := actorTestRouter(&actor)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/protected", nil)
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+signActorToken(t, "test-secret", "alice", "Alice"))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", actor.ID)
		assert.Equal(t, "Alice", actor.Name)
	})

	t.Run("BearerTokenBadSignature", func(t *testing.T) {
		var actor models.Actor
		r := actorTestRouter(&actor)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/protected", nil)
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+signActorToken(t, "other-secret", "mallory", "Mallory"))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, actor.ID)
	})

	t.Run("MalformedAuthorizationHeader", func(t *testing.T) {
		var actor models.Actor
		r := actorTestRouter(&actor)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/protected", nil)
		req.Header.Set(constants.HeaderAuthorization, "token-without-scheme")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ActorHeaderFallback", func(t *testing.T) {
		var actor models.Actor
		r := actorTestRouter(&actor)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/protected", nil)
		req.Header.Set(constants.HeaderActorID, "bob")
		req.Header.Set(constants.HeaderActorName, "Bob")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "bob", actor.ID)
		assert.Equal(t, "Bob", actor.Name)
	})

	t.Run("ActorHeaderNameDefaultsToID", func(t *testing.T) {
		var actor models.Actor
		r := actorTestRouter(&actor)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/protected", nil)
		req.Header.Set(constants.HeaderActorID, "carol")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "carol", actor.Name)
	})

	t.Run("NoIdentity", func(t *testing.T) {
		var actor models.Actor
		r := actorTestRouter(&actor)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/protected", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "UNAUTHORIZED", body["code"])
		assert.Equal(t, "unauthorized: No actor identity provided", body["error"])
		assert.Equal(t, body["error"], body["message"])
	})
}
