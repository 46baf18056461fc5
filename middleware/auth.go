package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/services"
)

// CurrentUserKey is the gin context key holding the authenticated *models.User
const CurrentUserKey = "current_user"

// TokenResolver turns a bearer token into the user it belongs to
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved user in the context.
func RequireAuth(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			abortWithError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header with a bearer token is required")
			return
		}

		user, err := resolver.ResolveToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnavailable) {
				abortWithError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database is unavailable")
				return
			}
			c.Header("WWW-Authenticate", "Bearer")
			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Could not validate credentials")
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// GetCurrentUser extracts the authenticated user from the Gin context
func GetCurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "User not found in context"}
	}

	user, ok := value.(*models.User)
	if !ok || user == nil {
		return nil, &AuthError{Code: "INVALID_USER", Message: "User in context has an unexpected type"}
	}

	return user, nil
}

// RequireRole is a middleware that checks the authenticated user's role
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetCurrentUser(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions to access this resource")
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
