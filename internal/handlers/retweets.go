package handlers

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/timeline"
	"github.com/zfogg/chirp/internal/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errNotRetweeted = stderrors.New("not retweeted")

// Retweet re-shares a tweet with an optional comment
// POST /api/v1/retweets/:tweetId
func (h *Handlers) Retweet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req struct {
		Comment string `json:"comment" binding:"max=280"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondWithAPIError(c, util.BindingError(err))
			return
		}
	}

	tweet, err := visibleTweet(ctx, c.Param("tweetId"), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	retweet := &models.Retweet{UserID: userID, TweetID: tweet.ID, Comment: strings.TrimSpace(req.Comment)}
	var n *models.Notification
	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(retweet)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.Conflict("you already retweeted this tweet")
		}
		if err := tx.Model(&models.Tweet{}).Where("id = ?", tweet.ID).
			Update("retweet_count", database.IncrementExpr("retweet_count")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("tweets_count", database.IncrementExpr("tweets_count")).Error; err != nil {
			return err
		}
		var err error
		n, err = notify(tx, tweet.AuthorID, userID, models.NotificationRetweet, &tweet.ID)
		return err
	})
	if err != nil {
		if apiErr, ok := errors.As(err); ok {
			util.RespondWithAPIError(c, apiErr)
			return
		}
		util.RespondInternalError(c, "failed to retweet", err)
		return
	}

	h.deliver(n)
	metrics.RecordSocialAction("retweet", "add")
	retweet.Tweet = tweet
	util.RespondCreated(c, retweet, "retweeted")
}

// Unretweet removes the viewer's retweet
// DELETE /api/v1/retweets/:tweetId
func (h *Handlers) Unretweet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	tweetID := c.Param("tweetId")

	err := database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var tweet models.Tweet
		if err := tx.Select("id", "author_id").First(&tweet, "id = ?", tweetID).Error; err != nil {
			if util.IsNotFound(err) {
				return errNotRetweeted
			}
			return err
		}
		result := tx.Where("user_id = ? AND tweet_id = ?", userID, tweetID).Delete(&models.Retweet{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errNotRetweeted
		}
		if err := tx.Model(&models.Tweet{}).Where("id = ?", tweetID).
			Update("retweet_count", database.DecrementExpr("retweet_count")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("tweets_count", database.DecrementExpr("tweets_count")).Error; err != nil {
			return err
		}
		return unnotify(tx, tweet.AuthorID, userID, models.NotificationRetweet, &tweetID)
	})
	if stderrors.Is(err, errNotRetweeted) {
		util.RespondNotFound(c, "retweet")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to remove retweet", err)
		return
	}

	metrics.RecordSocialAction("retweet", "remove")
	util.RespondOK(c, gin.H{"retweeted": false}, "retweet removed")
}

// GetRetweeters lists the users who retweeted a tweet
// GET /api/v1/retweets/tweet/:tweetId
func (h *Handlers) GetRetweeters(c *gin.Context) {
	h.listTweetUsers(c, "retweets")
}

// GetUserRetweets lists a user's retweets with the original tweet embedded
// GET /api/v1/retweets/user/:userId
func (h *Handlers) GetUserRetweets(c *gin.Context) {
	h.listRetweets(c, c.Param("userId"))
}

// GetMyRetweets lists the viewer's own retweets
// GET /api/v1/retweets/me
func (h *Handlers) GetMyRetweets(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	h.listRetweets(c, userID)
}

func (h *Handlers) listRetweets(c *gin.Context, ownerID string) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	page := util.ParsePage(c, defaultTweetPageSize, maxTweetPageSize)

	q := database.DB.WithContext(ctx).Model(&models.Retweet{}).
		Joins("JOIN tweets ON tweets.id = retweets.tweet_id").
		Where("retweets.user_id = ?", ownerID).
		Scopes(timeline.VisibleScope(viewerID))

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.RespondInternalError(c, "failed to load retweets", err)
		return
	}

	retweets := []*models.Retweet{}
	err := q.Session(&gorm.Session{}).
		Preload("User", models.SummaryScope).
		Preload("Tweet").
		Preload("Tweet.Author", models.SummaryScope).
		Preload("Tweet.QuoteOf").
		Preload("Tweet.QuoteOf.Author", models.SummaryScope).
		Order("retweets.created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&retweets).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load retweets", err)
		return
	}

	tweets := make([]*models.Tweet, 0, len(retweets))
	for _, r := range retweets {
		if r.Tweet != nil {
			tweets = append(tweets, r.Tweet)
		}
	}
	if err := h.timeline.Annotate(ctx, viewerID, tweets...); err != nil {
		util.RespondInternalError(c, "failed to load retweets", err)
		return
	}
	util.RespondOK(c, gin.H{"retweets": retweets, "pagination": timeline.NewPagination(page, total)}, "")
}

// RetweetStatus reports whether the viewer retweeted a tweet
// GET /api/v1/retweets/:tweetId/status
func (h *Handlers) RetweetStatus(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var count int64
	err := database.DB.WithContext(c.Request.Context()).Model(&models.Retweet{}).
		Where("user_id = ? AND tweet_id = ?", userID, c.Param("tweetId")).
		Count(&count).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load retweet status", err)
		return
	}
	util.RespondOK(c, gin.H{"isRetweeted": count > 0}, "")
}
