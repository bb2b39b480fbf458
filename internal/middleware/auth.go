package middleware

import (
	"context"
	"net/http"
	"strings"

	"hrms/internal/auth"
	"hrms/internal/rbac"
	"hrms/pkg/logger"
	"hrms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	ctxUserID   = "userID"
	ctxDecision = "decision"
)

// Authorizer evaluates permission requirements for a user.
type Authorizer interface {
	Authorize(ctx context.Context, userID uuid.UUID, reqs ...rbac.Requirement) (*rbac.Decision, error)
}

// Guard authenticates requests and enforces permission requirements per route.
type Guard struct {
	authz  Authorizer
	tokens *auth.JWTManager
	log    logger.Logger
}

func NewGuard(authz Authorizer, tokens *auth.JWTManager, log logger.Logger) *Guard {
	return &Guard{authz: authz, tokens: tokens, log: log}
}

// TokenFromRequest reads the access token from the cookie, falling back to
// the Authorization header.
func TokenFromRequest(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(AccessCookie); err == nil && token != "" {
		return token, true
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authenticated rejects requests without a valid access token. It loads
// nothing beyond the token subject.
func (g *Guard) Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := TokenFromRequest(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}
		userID, err := g.tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

// Require checks every requirement against the caller's roles. It must run
// after Authenticated. The decision is stored on the gin and request
// contexts so handlers can apply LIMITED scope.
func (g *Guard) Require(reqs ...rbac.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}
		decision, err := g.authz.Authorize(c.Request.Context(), userID, reqs...)
		if err != nil {
			AbortWithError(c, g.log, err)
			return
		}
		c.Set(ctxDecision, decision)
		c.Request = c.Request.WithContext(rbac.WithDecision(c.Request.Context(), decision))
		c.Next()
	}
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Decision returns the authorization decision recorded by Require, or nil.
func Decision(c *gin.Context) *rbac.Decision {
	v, ok := c.Get(ctxDecision)
	if !ok {
		return nil
	}
	d, _ := v.(*rbac.Decision)
	return d
}
