package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rogpool/pool-service-api/middleware"
	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/services"
	"github.com/stretchr/testify/require"
)

// TestJWTSecret signs tokens in tests
const TestJWTSecret = "test-secret-at-least-16-chars"

// NewTokenService creates a token service with the test secret
func NewTokenService(now func() time.Time) *services.TokenService {
	return services.NewTokenService(TestJWTSecret, now)
}

// BearerHeader returns an Authorization header value for the user
func BearerHeader(t *testing.T, tokens *services.TokenService, user *models.User) string {
	t.Helper()

	token, err := tokens.Issue(user.Username, user.Role)
	require.NoError(t, err)
	return "Bearer " + token
}

// SetCurrentUser sets up an authenticated context for handler tests
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(middleware.CurrentUserKey, user)
}

// CreateTestContext creates a test Gin context for a request, writing to w
func CreateTestContext(w *httptest.ResponseRecorder, req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c
}
