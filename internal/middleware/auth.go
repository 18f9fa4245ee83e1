package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/auth"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/util"
)

// AccessTokenCookie is the cookie the browser client authenticates with
const AccessTokenCookie = "accessToken"

// Authenticator verifies an access token. auth.Service implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, *models.User, error)
}

// AuthMiddleware requires a valid, unrevoked access token. It is read from the
// accessToken cookie or an Authorization: Bearer header; WebSocket upgrades may
// pass it as ?token= since browsers cannot set headers on them.
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			util.RespondWithAPIError(c, errors.Unauthorized("authentication required"))
			return
		}

		claims, user, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apiErr, ok := errors.As(err); ok {
				util.RespondWithAPIError(c, apiErr)
				return
			}
			util.RespondWithAPIError(c, errors.Unauthorized("invalid access token"))
			return
		}

		c.Set(util.ContextUserID, user.ID)
		c.Set(util.ContextUser, user)
		c.Set(util.ContextTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(util.ContextTokenExp, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// ExtractToken finds the access token on the request
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	if c.IsWebsocket() {
		return c.Query("token")
	}
	return ""
}

// RequireAdmin allows only users holding the admin role. Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			util.RespondWithAPIError(c, errors.Forbidden("admin access required"))
			return
		}
		c.Next()
	}
}
