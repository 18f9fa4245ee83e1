package util

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/models"
)

// Context keys set by the auth middleware
const (
	ContextUserID   = "user_id"
	ContextUser     = "user"
	ContextTokenJTI = "token_jti"
	ContextTokenExp = "token_exp"
)

// GetUserFromContext extracts the authenticated user from the Gin context.
// If the user is not authenticated, it responds with 401 and returns false.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(ContextUser)
	if !exists {
		RespondUnauthorized(c, "user not authenticated")
		return nil, false
	}
	userPtr, ok := user.(*models.User)
	if !ok {
		RespondWithAPIError(c, errors.InternalError("invalid user data in context"))
		return nil, false
	}
	return userPtr, true
}

// GetUserIDFromContext extracts the user ID from the Gin context.
// If the user is not authenticated, it responds with 401 and returns false.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		RespondUnauthorized(c)
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		RespondWithAPIError(c, errors.InternalError("invalid user ID in context"))
		return "", false
	}
	return userIDStr, true
}
