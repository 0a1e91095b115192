package middleware

import (
	"context"
	"strings"

	"shopadmin/internal/model"
	"shopadmin/internal/service"
	appErr "shopadmin/pkg/errors"
	"shopadmin/pkg/logger"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const currentUserKey = "currentUser"

// TokenResolver maps a bearer token to its user.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// Gate guards protected routes. Authenticate must run before RequireRole.
type Gate struct {
	tokens TokenResolver
}

func NewGate(tokens TokenResolver) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate resolves the bearer token and stores the caller in the
// context. Missing, malformed or unknown tokens get a 401.
func (g *Gate) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, service.ErrUnauthenticated)
			return
		}

		user, err := g.tokens.Resolve(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated caller
// holds one of roles. Authenticated callers without the role get a 403.
func (g *Gate) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithError(c, service.ErrUnauthenticated)
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		abortWithError(c, service.ErrForbidden)
	}
}

// CurrentUser returns the caller stored by Authenticate.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortWithError(c *gin.Context, err error) {
	status, body := response.FromError(err)
	if appErr.CodeOf(err) == appErr.CodeInternal {
		logger.L().Error("request failed",
			zap.String("request_id", RequestIDFrom(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, body)
}
