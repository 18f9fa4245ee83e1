package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/search"
	"github.com/zfogg/chirp/internal/storage"
	"github.com/zfogg/chirp/internal/timeline"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultTweetPageSize = 10
	maxTweetPageSize     = 50
)

type tweetInput struct {
	Content    string `json:"content" form:"content"`
	Visibility string `json:"visibility" form:"visibility"`
	ReplyTo    string `json:"replyTo" form:"replyTo"`
	QuoteOf    string `json:"quoteOf" form:"quoteOf"`
}

func parseVisibility(raw string, fallback models.Visibility) (models.Visibility, error) {
	if raw == "" {
		return fallback, nil
	}
	v := models.Visibility(strings.ToLower(raw))
	if !v.IsValid() {
		return "", errors.ValidationError("visibility", "visibility must be public, private or protected")
	}
	return v, nil
}

// loadTweet fetches a tweet with its author and quote
func loadTweet(ctx context.Context, tweetID string) (*models.Tweet, error) {
	var tweet models.Tweet
	err := database.DB.WithContext(ctx).Scopes(timeline.WithRelations).First(&tweet, "id = ?", tweetID).Error
	if util.IsNotFound(err) {
		return nil, errors.NotFound("tweet")
	}
	if err != nil {
		return nil, errors.Internal("failed to load tweet", err)
	}
	return &tweet, nil
}

// visibleTweet loads a tweet and rejects private tweets of other authors
func visibleTweet(ctx context.Context, tweetID, viewerID string) (*models.Tweet, error) {
	tweet, err := loadTweet(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if !tweet.VisibleTo(viewerID) {
		return nil, errors.Forbidden("this tweet is private")
	}
	return tweet, nil
}

// CreateTweet posts a tweet, reply or quote
// POST /api/v1/tweets
func (h *Handlers) CreateTweet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var in tweetInput
	if err := c.ShouldBind(&in); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	files := formFiles(c)

	content := strings.TrimSpace(in.Content)
	if content != "" || len(files) == 0 {
		var err error
		if content, err = util.ValidateTweetContent(content); err != nil {
			util.RespondWithError(c, err)
			return
		}
	}
	visibility, err := parseVisibility(in.Visibility, models.VisibilityPublic)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	var parent, quoted *models.Tweet
	if in.ReplyTo != "" {
		if parent, err = visibleTweet(ctx, in.ReplyTo, userID); err != nil {
			util.RespondWithError(c, err)
			return
		}
	}
	if in.QuoteOf != "" {
		if quoted, err = visibleTweet(ctx, in.QuoteOf, userID); err != nil {
			util.RespondWithError(c, err)
			return
		}
	}

	media, err := h.uploadMedia(c, util.TweetMediaPolicy, "tweets", userID, files)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	tweet := &models.Tweet{
		AuthorID:   userID,
		Content:    content,
		Media:      media,
		Visibility: visibility,
	}
	if parent != nil {
		tweet.ReplyToID = &parent.ID
		tweet.IsReply = true
	}
	if quoted != nil {
		tweet.QuoteOfID = &quoted.ID
		tweet.IsQuote = true
	}

	var created []*models.Notification
	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tweet).Error; err != nil {
			return err
		}
		notified := map[string]bool{userID: true}
		if parent != nil {
			if err := tx.Model(&models.Tweet{}).Where("id = ?", parent.ID).
				Update("replies_count", database.IncrementExpr("replies_count")).Error; err != nil {
				return err
			}
			n, err := notify(tx, parent.AuthorID, userID, models.NotificationReply, &tweet.ID)
			if err != nil {
				return err
			}
			created = append(created, n)
			notified[parent.AuthorID] = true
		}
		if quoted != nil {
			if err := tx.Model(&models.Tweet{}).Where("id = ?", quoted.ID).
				Update("retweet_count", database.IncrementExpr("retweet_count")).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("tweets_count", database.IncrementExpr("tweets_count")).Error; err != nil {
			return err
		}

		if mentions := util.ExtractMentions(content); len(mentions) > 0 {
			var mentioned []models.User
			if err := tx.Select("id").Where("username IN ?", mentions).Find(&mentioned).Error; err != nil {
				return err
			}
			for _, u := range mentioned {
				if notified[u.ID] {
					continue
				}
				n, err := notify(tx, u.ID, userID, models.NotificationMention, &tweet.ID)
				if err != nil {
					return err
				}
				created = append(created, n)
				notified[u.ID] = true
			}
		}
		return nil
	})
	if err != nil {
		storage.DeleteAll(ctx, h.media, media.Keys())
		util.RespondInternalError(c, "failed to create tweet", err)
		return
	}

	h.deliver(created...)
	metrics.RecordSocialAction("tweet", "add")

	full, err := loadTweet(ctx, tweet.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	h.indexTweet(ctx, full)
	full.RedactQuote(userID)
	util.RespondCreated(c, full, "tweet created")
}

// GetTweet returns one tweet annotated for the viewer
// GET /api/v1/tweets/:tweetId
func (h *Handlers) GetTweet(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	tweet, err := visibleTweet(c.Request.Context(), c.Param("tweetId"), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if err := h.timeline.Annotate(c.Request.Context(), userID, tweet); err != nil {
		util.RespondInternalError(c, "failed to load tweet", err)
		return
	}
	util.RespondOK(c, tweet, "")
}

// GetUserTweets lists a user's top-level tweets, pinned first
// GET /api/v1/tweets/user/:userId
func (h *Handlers) GetUserTweets(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	authorID := c.Param("userId")
	var count int64
	if err := database.DB.Model(&models.User{}).Where("id = ?", authorID).Count(&count).Error; err != nil {
		util.RespondInternalError(c, "failed to load user", err)
		return
	}
	if count == 0 {
		util.RespondNotFound(c, "user")
		return
	}

	feed, err := h.timeline.UserTweets(c.Request.Context(), viewerID, authorID, util.ParsePage(c, defaultTweetPageSize, maxTweetPageSize))
	if err != nil {
		util.RespondInternalError(c, "failed to load tweets", err)
		return
	}
	util.RespondOK(c, feed, "")
}

// GetTimeline returns the viewer's home feed
// GET /api/v1/tweets/timeline
func (h *Handlers) GetTimeline(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	feed, err := h.timeline.Home(c.Request.Context(), viewerID, util.ParsePage(c, defaultTweetPageSize, maxTweetPageSize))
	if err != nil {
		util.RespondInternalError(c, "failed to load timeline", err)
		return
	}
	util.RespondOK(c, feed, "")
}

// GetReplies lists replies oldest first
// GET /api/v1/tweets/:tweetId/replies
func (h *Handlers) GetReplies(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	parent, err := visibleTweet(c.Request.Context(), c.Param("tweetId"), viewerID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	feed, err := h.timeline.Replies(c.Request.Context(), viewerID, parent.ID, util.ParsePage(c, defaultTweetPageSize, maxTweetPageSize))
	if err != nil {
		util.RespondInternalError(c, "failed to load replies", err)
		return
	}
	util.RespondOK(c, feed, "")
}

// UpdateTweet edits content, visibility and media of a top-level tweet
// PUT /api/v1/tweets/:tweetId
func (h *Handlers) UpdateTweet(c *gin.Context) {
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
	if tweet.AuthorID != userID {
		util.RespondForbidden(c, "you can only edit your own tweets")
		return
	}
	if tweet.IsReply || tweet.IsQuote {
		util.RespondBadRequest(c, "replies and quotes cannot be edited")
		return
	}

	var in tweetInput
	if err := c.ShouldBind(&in); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	files := formFiles(c)

	patch := models.Tweet{}
	var columns []string
	if strings.TrimSpace(in.Content) != "" || (len(files) == 0 && len(tweet.Media) == 0) {
		content, err := util.ValidateTweetContent(in.Content)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		patch.Content = content
		columns = append(columns, "content")
	}
	if in.Visibility != "" {
		v, err := parseVisibility(in.Visibility, tweet.Visibility)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}
		patch.Visibility = v
		columns = append(columns, "visibility")
	}

	var oldKeys []string
	if len(files) > 0 {
		if patch.Media, err = h.uploadMedia(c, util.TweetMediaPolicy, "tweets", userID, files); err != nil {
			util.RespondWithError(c, err)
			return
		}
		columns = append(columns, "media")
		oldKeys = tweet.Media.Keys()
	}
	if len(columns) == 0 {
		util.RespondBadRequest(c, "nothing to update")
		return
	}

	if err := database.DB.WithContext(ctx).Model(&models.Tweet{ID: tweet.ID}).Select(columns).Updates(&patch).Error; err != nil {
		storage.DeleteAll(ctx, h.media, patch.Media.Keys())
		util.RespondInternalError(c, "failed to update tweet", err)
		return
	}
	storage.DeleteAll(ctx, h.media, oldKeys)

	updated, err := loadTweet(ctx, tweet.ID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	h.indexTweet(ctx, updated)
	if err := h.timeline.Annotate(ctx, userID, updated); err != nil {
		logger.Log.Warn("Failed to annotate tweet", logger.WithTweetID(tweet.ID), zap.Error(err))
	}
	util.RespondOK(c, updated, "tweet updated")
}

// DeleteTweet removes a tweet with everything that references it and fixes the counters
// DELETE /api/v1/tweets/:tweetId
func (h *Handlers) DeleteTweet(c *gin.Context) {
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
	if tweet.AuthorID != userID {
		util.RespondForbidden(c, "you can only delete your own tweets")
		return
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tweet.ReplyToID != nil {
			if err := tx.Model(&models.Tweet{}).Where("id = ?", *tweet.ReplyToID).
				Update("replies_count", database.DecrementExpr("replies_count")).Error; err != nil {
				return err
			}
		}
		if tweet.QuoteOfID != nil {
			if err := tx.Model(&models.Tweet{}).Where("id = ?", *tweet.QuoteOfID).
				Update("retweet_count", database.DecrementExpr("retweet_count")).Error; err != nil {
				return err
			}
		}
		var retweeters []string
		if err := tx.Model(&models.Retweet{}).Where("tweet_id = ?", tweet.ID).Pluck("user_id", &retweeters).Error; err != nil {
			return err
		}
		if len(retweeters) > 0 {
			if err := tx.Model(&models.User{}).Where("id IN ?", retweeters).
				Update("tweets_count", database.DecrementExpr("tweets_count")).Error; err != nil {
				return err
			}
		}
		for _, model := range []interface{}{&models.Like{}, &models.Bookmark{}, &models.Retweet{}, &models.Notification{}} {
			if err := tx.Where("tweet_id = ?", tweet.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Tweet{ID: tweet.ID}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Update("tweets_count", database.DecrementExpr("tweets_count")).Error
	})
	if err != nil {
		util.RespondInternalError(c, "failed to delete tweet", err)
		return
	}

	storage.DeleteAll(ctx, h.media, tweet.Media.Keys())
	h.unindexTweet(ctx, tweet.ID)
	metrics.RecordSocialAction("tweet", "remove")
	util.RespondOK(c, gin.H{"id": tweet.ID}, "tweet deleted")
}

// TogglePin pins or unpins one of the viewer's tweets
// POST /api/v1/tweets/:tweetId/pin
func (h *Handlers) TogglePin(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	tweet, err := loadTweet(c.Request.Context(), c.Param("tweetId"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	if tweet.AuthorID != userID {
		util.RespondForbidden(c, "you can only pin your own tweets")
		return
	}

	pinned := !tweet.Pinned
	if err := database.DB.Model(&models.Tweet{ID: tweet.ID}).Update("pinned", pinned).Error; err != nil {
		util.RespondInternalError(c, "failed to pin tweet", err)
		return
	}
	util.RespondOK(c, gin.H{"pinned": pinned}, "")
}

// SearchTweets finds top-level tweets the viewer may see. Elasticsearch is
// used when configured; SQL answers otherwise or when it fails.
// GET /api/v1/tweets/search?q=
func (h *Handlers) SearchTweets(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}
	page := util.ParsePage(c, defaultTweetPageSize, maxTweetPageSize)
	ctx := c.Request.Context()

	if h.search != nil {
		searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
		result, err := h.search.SearchTweets(searchCtx, search.TweetQuery{
			Text:     q,
			ViewerID: viewerID,
			Limit:    page.Limit,
			Offset:   page.Offset(),
		})
		cancel()
		if err == nil {
			feed, err := h.timeline.Hydrate(ctx, viewerID, result.IDs, page, result.Total)
			if err != nil {
				util.RespondInternalError(c, "failed to load tweets", err)
				return
			}
			util.RespondOK(c, feed, "")
			return
		}
		logger.Log.Warn("Tweet search failed, falling back to SQL", zap.Error(err))
		metrics.Get().SearchRequestsTotal.WithLabelValues("sql", "fallback").Inc()
	}

	feed, err := h.timeline.Search(ctx, viewerID, q, page)
	if err != nil {
		util.RespondInternalError(c, "failed to search tweets", err)
		return
	}
	util.RespondOK(c, feed, "")
}
