package search

import (
	"context"
	"time"

	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const backfillBatchSize = 500

// BackfillStats counts documents written by a backfill
type BackfillStats struct {
	Tweets   int
	Users    int
	Failures int
}

// Backfill indexes every tweet and user from db in batches. Individual
// failures are counted and skipped so one bad row does not stop the run.
func Backfill(ctx context.Context, db *gorm.DB, indexer Indexer) (BackfillStats, error) {
	var stats BackfillStats
	start := time.Now()

	var tweets []*models.Tweet
	err := db.WithContext(ctx).
		Preload("Author", models.SummaryScope).
		FindInBatches(&tweets, backfillBatchSize, func(tx *gorm.DB, batch int) error {
			for _, t := range tweets {
				if err := indexer.IndexTweet(ctx, TweetToDocument(t)); err != nil {
					stats.Failures++
					logger.Log.Warn("Failed to index tweet", logger.WithTweetID(t.ID), zap.Error(err))
					continue
				}
				stats.Tweets++
			}
			return ctx.Err()
		}).Error
	if err != nil {
		return stats, err
	}

	var users []*models.User
	err = db.WithContext(ctx).
		Where("is_verified = ?", true).
		FindInBatches(&users, backfillBatchSize, func(tx *gorm.DB, batch int) error {
			for _, u := range users {
				if err := indexer.IndexUser(ctx, UserToDocument(u)); err != nil {
					stats.Failures++
					logger.Log.Warn("Failed to index user", logger.WithUserID(u.ID), zap.Error(err))
					continue
				}
				stats.Users++
			}
			return ctx.Err()
		}).Error
	if err != nil {
		return stats, err
	}

	logger.Log.Info("Search backfill completed",
		zap.Int("tweets", stats.Tweets),
		zap.Int("users", stats.Users),
		zap.Int("failures", stats.Failures),
		zap.Duration("duration", time.Since(start)))
	return stats, nil
}
