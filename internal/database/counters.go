package database

import (
	"fmt"

	"gorm.io/gorm"
)

// recountStatements rebuild every denormalized counter from the join tables.
// Correlated subqueries keep them portable between PostgreSQL and SQLite.
var recountStatements = []struct {
	name string
	sql  string
}{
	{"users.followers_count", `UPDATE users SET followers_count =
		(SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id)`},
	{"users.following_count", `UPDATE users SET following_count =
		(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id)`},
	{"users.tweets_count", `UPDATE users SET tweets_count =
		(SELECT COUNT(*) FROM tweets WHERE tweets.author_id = users.id) +
		(SELECT COUNT(*) FROM retweets WHERE retweets.user_id = users.id)`},
	{"tweets.likes_count", `UPDATE tweets SET likes_count =
		(SELECT COUNT(*) FROM likes WHERE likes.tweet_id = tweets.id)`},
	{"tweets.replies_count", `UPDATE tweets SET replies_count =
		(SELECT COUNT(*) FROM tweets AS r WHERE r.reply_to_id = tweets.id)`},
	{"tweets.retweet_count", `UPDATE tweets SET retweet_count =
		(SELECT COUNT(*) FROM retweets WHERE retweets.tweet_id = tweets.id) +
		(SELECT COUNT(*) FROM tweets AS q WHERE q.quote_of_id = tweets.id)`},
	{"communities.members_count", `UPDATE communities SET members_count =
		(SELECT COUNT(*) FROM community_members WHERE community_members.community_id = communities.id)`},
}

// RecountCounters repairs counters that drifted, e.g. after manual edits or a seed run
func RecountCounters(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range recountStatements {
			if err := tx.Exec(stmt.sql).Error; err != nil {
				return fmt.Errorf("recount %s: %w", stmt.name, err)
			}
		}
		return nil
	})
}
