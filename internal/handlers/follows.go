package handlers

import (
	"context"
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/repository"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
)

// FollowUser follows a user. Repeating it changes nothing.
// POST /api/v1/follows/:userId
func (h *Handlers) FollowUser(c *gin.Context) {
	followerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("userId")
	if targetID == followerID {
		util.RespondBadRequest(c, "you cannot follow yourself")
		return
	}

	ctx := c.Request.Context()
	users := h.auth.Users()
	if _, err := users.GetUser(ctx, targetID); err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		util.RespondInternalError(c, "failed to load user", err)
		return
	}

	created, err := users.CreateFollow(ctx, followerID, targetID)
	if err != nil {
		util.RespondInternalError(c, "failed to follow user", err)
		return
	}
	if created {
		n, err := notify(database.DB.WithContext(ctx), targetID, followerID, models.NotificationFollow, nil)
		if err != nil {
			logger.Log.Warn("Failed to store follow notification", logger.WithUserID(targetID), zap.Error(err))
		}
		h.deliver(n)
		metrics.RecordSocialAction("follow", "add")
	}
	util.RespondOK(c, gin.H{"isFollowing": true}, "")
}

// UnfollowUser stops following a user. Repeating it changes nothing.
// DELETE /api/v1/follows/:userId
func (h *Handlers) UnfollowUser(c *gin.Context) {
	followerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("userId")
	ctx := c.Request.Context()

	deleted, err := h.auth.Users().DeleteFollow(ctx, followerID, targetID)
	if err != nil {
		util.RespondInternalError(c, "failed to unfollow user", err)
		return
	}
	if deleted {
		if err := unnotify(database.DB.WithContext(ctx), targetID, followerID, models.NotificationFollow, nil); err != nil {
			logger.Log.Warn("Failed to remove follow notification", logger.WithUserID(targetID), zap.Error(err))
		}
		metrics.RecordSocialAction("follow", "remove")
	}
	util.RespondOK(c, gin.H{"isFollowing": false}, "")
}

// GetFollowers pages through a user's followers
// GET /api/v1/follows/:userId/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	h.listFollows(c, repository.UserRepository.GetFollowers)
}

// GetFollowing pages through the users a user follows
// GET /api/v1/follows/:userId/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	h.listFollows(c, repository.UserRepository.GetFollowing)
}

type followLister func(repo repository.UserRepository, ctx context.Context, userID string, limit, offset int) ([]*models.User, int64, error)

func (h *Handlers) listFollows(c *gin.Context, list followLister) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page := util.ParsePage(c, 20, 100)

	users, total, err := list(h.auth.Users(), c.Request.Context(), c.Param("userId"), page.Limit, page.Offset())
	if err != nil {
		util.RespondInternalError(c, "failed to load users", err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	for _, u := range users {
		u.Email = ""
	}
	if err := h.annotateFollowing(c, viewerID, users); err != nil {
		util.RespondInternalError(c, "failed to load follow state", err)
		return
	}
	util.RespondOK(c, gin.H{"users": users, "pagination": util.NewPagination(page, total)}, "")
}
