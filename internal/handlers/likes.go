package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeTweet likes a tweet. Repeating it changes nothing.
// POST /api/v1/likes/:tweetId
func (h *Handlers) LikeTweet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	tweet, err := visibleTweet(ctx, c.Param("tweetId"), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	var n *models.Notification
	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Like{UserID: userID, TweetID: tweet.ID})
		if result.Error != nil || result.RowsAffected == 0 {
			return result.Error
		}
		if err := tx.Model(&models.Tweet{}).Where("id = ?", tweet.ID).
			Update("likes_count", database.IncrementExpr("likes_count")).Error; err != nil {
			return err
		}
		var err error
		n, err = notify(tx, tweet.AuthorID, userID, models.NotificationLike, &tweet.ID)
		return err
	})
	if err != nil {
		util.RespondInternalError(c, "failed to like tweet", err)
		return
	}

	h.deliver(n)
	metrics.RecordSocialAction("like", "add")
	util.RespondOK(c, gin.H{"liked": true, "likesCount": likesCount(ctx, tweet)}, "")
}

// UnlikeTweet removes a like. Repeating it changes nothing.
// DELETE /api/v1/likes/:tweetId
func (h *Handlers) UnlikeTweet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	tweet, err := loadTweet(ctx, c.Param("tweetId"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND tweet_id = ?", userID, tweet.ID).Delete(&models.Like{})
		if result.Error != nil || result.RowsAffected == 0 {
			return result.Error
		}
		if err := tx.Model(&models.Tweet{}).Where("id = ?", tweet.ID).
			Update("likes_count", database.DecrementExpr("likes_count")).Error; err != nil {
			return err
		}
		return unnotify(tx, tweet.AuthorID, userID, models.NotificationLike, &tweet.ID)
	})
	if err != nil {
		util.RespondInternalError(c, "failed to unlike tweet", err)
		return
	}

	metrics.RecordSocialAction("like", "remove")
	util.RespondOK(c, gin.H{"liked": false, "likesCount": likesCount(ctx, tweet)}, "")
}

// GetLikers lists the users who liked a tweet
// GET /api/v1/likes/:tweetId
func (h *Handlers) GetLikers(c *gin.Context) {
	h.listTweetUsers(c, "likes")
}

// BookmarkTweet saves a tweet. Repeating it changes nothing.
// POST /api/v1/bookmarks/:tweetId
func (h *Handlers) BookmarkTweet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	tweet, err := visibleTweet(c.Request.Context(), c.Param("tweetId"), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	err = database.DB.WithContext(c.Request.Context()).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Bookmark{UserID: userID, TweetID: tweet.ID}).Error
	if err != nil {
		util.RespondInternalError(c, "failed to bookmark tweet", err)
		return
	}
	metrics.RecordSocialAction("bookmark", "add")
	util.RespondOK(c, gin.H{"bookmarked": true}, "")
}

// UnbookmarkTweet removes a bookmark. Repeating it changes nothing.
// DELETE /api/v1/bookmarks/:tweetId
func (h *Handlers) UnbookmarkTweet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	err := database.DB.WithContext(c.Request.Context()).
		Where("user_id = ? AND tweet_id = ?", userID, c.Param("tweetId")).
		Delete(&models.Bookmark{}).Error
	if err != nil {
		util.RespondInternalError(c, "failed to remove bookmark", err)
		return
	}
	metrics.RecordSocialAction("bookmark", "remove")
	util.RespondOK(c, gin.H{"bookmarked": false}, "")
}

// GetBookmarks lists the viewer's bookmarks, newest bookmark first
// GET /api/v1/bookmarks
func (h *Handlers) GetBookmarks(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	feed, err := h.timeline.Bookmarks(c.Request.Context(), userID, util.ParsePage(c, defaultTweetPageSize, maxTweetPageSize))
	if err != nil {
		util.RespondInternalError(c, "failed to load bookmarks", err)
		return
	}
	util.RespondOK(c, feed, "")
}

// listTweetUsers pages through the users joined to a tweet through table (likes or retweets)
func (h *Handlers) listTweetUsers(c *gin.Context, table string) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	tweet, err := visibleTweet(c.Request.Context(), c.Param("tweetId"), viewerID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	page := util.ParsePage(c, 20, 100)

	q := database.DB.WithContext(c.Request.Context()).Model(&models.User{}).
		Joins("JOIN "+table+" ON "+table+".user_id = users.id").
		Where(table+".tweet_id = ?", tweet.ID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.RespondInternalError(c, "failed to load users", err)
		return
	}
	users := []*models.User{}
	err = q.Session(&gorm.Session{}).
		Select("users.id, users.username, users.full_name, users.avatar_url, users.is_verified").
		Order(table + ".created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load users", err)
		return
	}
	if err := h.annotateFollowing(c, viewerID, users); err != nil {
		util.RespondInternalError(c, "failed to load follow state", err)
		return
	}
	util.RespondOK(c, gin.H{"users": users, "pagination": util.NewPagination(page, total)}, "")
}

// counter reads a tweet counter after a change
func counter(ctx context.Context, tweetID, column string) (int, error) {
	var value int
	err := database.DB.WithContext(ctx).Model(&models.Tweet{}).Where("id = ?", tweetID).Select(column).Scan(&value).Error
	return value, err
}

// likesCount reports the fresh like count, or the count loaded before the change if it cannot be read
func likesCount(ctx context.Context, tweet *models.Tweet) int {
	n, err := counter(ctx, tweet.ID, "likes_count")
	if err != nil {
		logger.Log.Warn("Failed to read likes count", logger.WithTweetID(tweet.ID), zap.Error(err))
		return tweet.LikesCount
	}
	return n
}
