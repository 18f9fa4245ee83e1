// Package timeline assembles paginated tweet feeds and annotates them for the viewer.
package timeline

import (
	"context"
	"strings"
	"time"

	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/telemetry"
	"github.com/zfogg/chirp/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feed names used as the metrics label
const (
	FeedHome           = "timeline"
	FeedUser           = "user"
	FeedReplies        = "replies"
	FeedBookmarks      = "bookmarks"
	FeedCommunity      = "community"
	FeedCommunityPosts = "community_posts"
	FeedSearch         = "search"
)

// Pagination is the page metadata returned with tweet lists
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalTweets int64 `json:"totalTweets"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPagination converts the generic page metadata into the tweet-list shape
func NewPagination(p util.Page, total int64) Pagination {
	pg := util.NewPagination(p, total)
	return Pagination{
		CurrentPage: pg.CurrentPage,
		TotalPages:  pg.TotalPages,
		TotalTweets: pg.Total,
		HasNextPage: pg.HasNextPage,
		HasPrevPage: pg.HasPrevPage,
	}
}

// Feed is one page of tweets
type Feed struct {
	Tweets     []*models.Tweet `json:"tweets"`
	Pagination Pagination      `json:"pagination"`
}

// Service builds feeds from the database
type Service struct {
	db *gorm.DB
}

// NewService creates a timeline service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// VisibleScope hides private tweets unless the viewer wrote them
func VisibleScope(viewerID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tweets.visibility <> ? OR tweets.author_id = ?", models.VisibilityPrivate, viewerID)
	}
}

// WithRelations preloads the author and the quoted tweet with its author
func WithRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author", models.SummaryScope).
		Preload("QuoteOf").
		Preload("QuoteOf.Author", models.SummaryScope)
}

// Home returns the viewer's timeline: top-level tweets from followed authors
// and the viewer, plus every public or protected tweet, newest first.
func (s *Service) Home(ctx context.Context, viewerID string, p util.Page) (*Feed, error) {
	following := s.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", viewerID)
	q := s.db.WithContext(ctx).Model(&models.Tweet{}).
		Where("tweets.is_reply = ?", false).
		Where(
			s.db.Where("tweets.author_id IN (?)", following).
				Or("tweets.author_id = ?", viewerID).
				Or("tweets.visibility IN ?", []models.Visibility{models.VisibilityPublic, models.VisibilityProtected}),
		).
		Scopes(VisibleScope(viewerID))
	return s.page(ctx, FeedHome, viewerID, q, "tweets.created_at DESC", p)
}

// UserTweets lists an author's top-level tweets, pinned first
func (s *Service) UserTweets(ctx context.Context, viewerID, authorID string, p util.Page) (*Feed, error) {
	q := s.db.WithContext(ctx).Model(&models.Tweet{}).
		Where("tweets.author_id = ? AND tweets.is_reply = ?", authorID, false).
		Scopes(VisibleScope(viewerID))
	return s.page(ctx, FeedUser, viewerID, q, "tweets.pinned DESC, tweets.created_at DESC", p)
}

// Replies lists the replies to a tweet, oldest first
func (s *Service) Replies(ctx context.Context, viewerID, parentID string, p util.Page) (*Feed, error) {
	q := s.db.WithContext(ctx).Model(&models.Tweet{}).
		Where("tweets.reply_to_id = ?", parentID).
		Scopes(VisibleScope(viewerID))
	return s.page(ctx, FeedReplies, viewerID, q, "tweets.created_at ASC", p)
}

// Bookmarks lists the viewer's bookmarked tweets, newest bookmark first
func (s *Service) Bookmarks(ctx context.Context, viewerID string, p util.Page) (*Feed, error) {
	q := s.db.WithContext(ctx).Model(&models.Tweet{}).
		Joins("JOIN bookmarks ON bookmarks.tweet_id = tweets.id AND bookmarks.user_id = ?", viewerID).
		Scopes(VisibleScope(viewerID))
	return s.page(ctx, FeedBookmarks, viewerID, q, "bookmarks.created_at DESC", p)
}

// CommunityFeed lists top-level tweets by members of any community the viewer belongs to
func (s *Service) CommunityFeed(ctx context.Context, viewerID string, p util.Page) (*Feed, error) {
	mine := s.db.Model(&models.CommunityMember{}).Select("community_id").Where("user_id = ?", viewerID)
	members := s.db.Model(&models.CommunityMember{}).Select("user_id").Where("community_id IN (?)", mine)
	q := s.db.WithContext(ctx).Model(&models.Tweet{}).
		Where("tweets.is_reply = ? AND tweets.author_id IN (?)", false, members).
		Scopes(VisibleScope(viewerID))
	return s.page(ctx, FeedCommunity, viewerID, q, "tweets.created_at DESC", p)
}

// CommunityPosts lists top-level tweets by the members of one community
func (s *Service) CommunityPosts(ctx context.Context, viewerID, communityID string, p util.Page) (*Feed, error) {
	members := s.db.Model(&models.CommunityMember{}).Select("user_id").Where("community_id = ?", communityID)
	q := s.db.WithContext(ctx).Model(&models.Tweet{}).
		Where("tweets.is_reply = ? AND tweets.author_id IN (?)", false, members).
		Scopes(VisibleScope(viewerID))
	return s.page(ctx, FeedCommunityPosts, viewerID, q, "tweets.created_at DESC", p)
}

// Search is the SQL fallback for tweet search: a case-insensitive substring
// match over top-level tweets.
func (s *Service) Search(ctx context.Context, viewerID, query string, p util.Page) (*Feed, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := s.db.WithContext(ctx).Model(&models.Tweet{}).
		Where("tweets.is_reply = ? AND LOWER(tweets.content) LIKE ?", false, pattern).
		Scopes(VisibleScope(viewerID))
	return s.page(ctx, FeedSearch, viewerID, q, "tweets.created_at DESC", p)
}

// Hydrate loads tweets by id in the given order, dropping any the viewer may
// not see. It turns search-engine hits into a feed.
func (s *Service) Hydrate(ctx context.Context, viewerID string, ids []string, p util.Page, total int64) (*Feed, error) {
	feed := &Feed{Tweets: []*models.Tweet{}, Pagination: NewPagination(p, total)}
	if len(ids) == 0 {
		return feed, nil
	}

	var rows []*models.Tweet
	err := s.db.WithContext(ctx).Model(&models.Tweet{}).
		Scopes(WithRelations, VisibleScope(viewerID)).
		Where("tweets.id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Tweet, len(rows))
	for _, t := range rows {
		byID[t.ID] = t
	}
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			feed.Tweets = append(feed.Tweets, t)
		}
	}
	if err := s.Annotate(ctx, viewerID, feed.Tweets...); err != nil {
		return nil, err
	}
	return feed, nil
}

func (s *Service) page(ctx context.Context, feed, viewerID string, q *gorm.DB, order string, p util.Page) (*Feed, error) {
	ctx, span := telemetry.StartOperation(ctx, "feed."+feed,
		attribute.String("feed.name", feed),
		attribute.Int("feed.page", p.Page),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.Get().FeedGenerationTime.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	}()

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, err
	}

	tweets := []*models.Tweet{}
	err := q.Session(&gorm.Session{}).
		Scopes(WithRelations).
		Order(order).
		Offset(p.Offset()).
		Limit(p.Limit).
		Find(&tweets).Error
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := s.Annotate(ctx, viewerID, tweets...); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("feed.count", len(tweets)), attribute.Int64("feed.total", total))
	return &Feed{Tweets: tweets, Pagination: NewPagination(p, total)}, nil
}

// Annotate sets the per-viewer flags on each tweet and redacts embedded
// quotes the viewer may not see.
func (s *Service) Annotate(ctx context.Context, viewerID string, tweets ...*models.Tweet) error {
	if len(tweets) == 0 {
		return nil
	}
	for _, t := range tweets {
		t.RedactQuote(viewerID)
	}
	if viewerID == "" {
		return nil
	}

	tweetIDs := make([]string, 0, len(tweets))
	authorIDs := make([]string, 0, len(tweets))
	for _, t := range tweets {
		tweetIDs = append(tweetIDs, t.ID)
		authorIDs = append(authorIDs, t.AuthorID)
	}

	db := s.db.WithContext(ctx)
	liked, err := pluckSet(db.Model(&models.Like{}).Where("user_id = ? AND tweet_id IN ?", viewerID, tweetIDs), "tweet_id")
	if err != nil {
		return err
	}
	retweeted, err := pluckSet(db.Model(&models.Retweet{}).Where("user_id = ? AND tweet_id IN ?", viewerID, tweetIDs), "tweet_id")
	if err != nil {
		return err
	}
	bookmarked, err := pluckSet(db.Model(&models.Bookmark{}).Where("user_id = ? AND tweet_id IN ?", viewerID, tweetIDs), "tweet_id")
	if err != nil {
		return err
	}
	following, err := pluckSet(db.Model(&models.Follow{}).Where("follower_id = ? AND following_id IN ?", viewerID, authorIDs), "following_id")
	if err != nil {
		return err
	}

	for _, t := range tweets {
		_, t.IsLiked = liked[t.ID]
		_, t.IsRetweeted = retweeted[t.ID]
		_, t.IsBookmarked = bookmarked[t.ID]
		_, t.IsFollowingAuthor = following[t.AuthorID]
	}
	return nil
}

func pluckSet(q *gorm.DB, column string) (map[string]struct{}, error) {
	var ids []string
	if err := q.Pluck(column, &ids).Error; err != nil {
		logger.Log.Warn("Failed to load tweet annotations", zap.String("column", column), zap.Error(err))
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
