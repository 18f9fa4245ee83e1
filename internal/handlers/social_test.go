package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/testutil"
	"github.com/zfogg/chirp/internal/timeline"
	"github.com/zfogg/chirp/internal/websocket"
)

// =============================================================================
// TWEETS
// =============================================================================

func (suite *HandlersTestSuite) TestCreateTweetValidatesContent() {
	w, env := suite.request(http.MethodPost, "/tweets", suite.alice.ID, gin.H{"content": "   "})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("VALIDATION_ERROR", env.Code)

	long := make([]byte, 281)
	for i := range long {
		long[i] = 'a'
	}
	w, _ = suite.request(http.MethodPost, "/tweets", suite.alice.ID, gin.H{"content": string(long)})
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodPost, "/tweets", suite.alice.ID, gin.H{"content": "hi", "visibility": "friends"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCreateMediaOnlyTweet() {
	w, env := suite.multipartRequest("/tweets", suite.alice.ID,
		map[string]string{"content": "  "},
		upload{name: "sunset.png", contentType: "image/png", body: []byte("\x89PNG\r\n\x1a\n")})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var tweet models.Tweet
	suite.decode(env, &tweet)
	suite.Empty(tweet.Content)
	suite.Require().Len(tweet.Media, 1)
	suite.Equal("image", tweet.Media[0].Type)
	suite.Equal(1, suite.media.Len())

	w, _ = suite.multipartRequest("/tweets", suite.alice.ID, map[string]string{"content": "  "})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCreateTweetCountsAndMentions() {
	tweet := suite.postTweet(suite.alice.ID, gin.H{"content": "hello @bob and @nobody"})
	suite.Equal(models.VisibilityPublic, tweet.Visibility)

	var alice models.User
	suite.Require().NoError(suite.db.First(&alice, "id = ?", suite.alice.ID).Error)
	suite.Equal(1, alice.TweetsCount)

	suite.EqualValues(1, suite.count(&models.Notification{}, "user_id = ? AND type = ?", suite.bob.ID, models.NotificationMention))
	suite.Equal(1, suite.pusher.count(suite.bob.ID, websocket.MessageTypeNewNotification))
}

// Deleting a reply decrements the parent's reply count
func (suite *HandlersTestSuite) TestDeleteReplyDecrementsParent() {
	parent := suite.postTweet(suite.alice.ID, gin.H{"content": "parent"})
	reply := suite.postTweet(suite.bob.ID, gin.H{"content": "reply", "replyTo": parent.ID})
	suite.True(reply.IsReply)
	suite.Equal(1, suite.reloadTweet(parent.ID).RepliesCount)
	suite.EqualValues(1, suite.count(&models.Notification{}, "user_id = ? AND type = ?", suite.alice.ID, models.NotificationReply))

	w, _ := suite.request(http.MethodDelete, "/tweets/"+reply.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w, _ = suite.request(http.MethodDelete, "/tweets/"+reply.ID, suite.bob.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal(0, suite.reloadTweet(parent.ID).RepliesCount)
	suite.EqualValues(0, suite.count(&models.Tweet{}, "id = ?", reply.ID))
	suite.EqualValues(0, suite.count(&models.Notification{}, "tweet_id = ?", reply.ID))
}

func (suite *HandlersTestSuite) TestDeleteTweetRemovesJoins() {
	tweet := suite.postTweet(suite.alice.ID, gin.H{"content": "short lived"})
	suite.request(http.MethodPost, "/likes/"+tweet.ID, suite.bob.ID, nil)
	suite.request(http.MethodPost, "/bookmarks/"+tweet.ID, suite.bob.ID, nil)
	w, _ := suite.request(http.MethodPost, "/retweets/"+tweet.ID, suite.bob.ID, nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var bob models.User
	suite.Require().NoError(suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	suite.Equal(1, bob.TweetsCount)

	w, _ = suite.request(http.MethodDelete, "/tweets/"+tweet.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.EqualValues(0, suite.count(&models.Like{}, "tweet_id = ?", tweet.ID))
	suite.EqualValues(0, suite.count(&models.Bookmark{}, "tweet_id = ?", tweet.ID))
	suite.EqualValues(0, suite.count(&models.Retweet{}, "tweet_id = ?", tweet.ID))

	// the retweeter's count drops with the retweet and agrees with a recount
	suite.Require().NoError(suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	suite.Equal(0, bob.TweetsCount)
	suite.Require().NoError(database.RecountCounters(suite.db))
	suite.Require().NoError(suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	suite.Equal(0, bob.TweetsCount)

	w, _ = suite.request(http.MethodGet, "/tweets/"+tweet.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

// Private tweets are hidden from other users' timelines and quote embeds
func (suite *HandlersTestSuite) TestPrivateTweetsAreHidden() {
	secret := suite.postTweet(suite.bob.ID, gin.H{"content": "just for me", "visibility": "private"})
	quote := suite.postTweet(suite.bob.ID, gin.H{"content": "quoting myself", "quoteOf": secret.ID})

	w, _ := suite.request(http.MethodGet, "/tweets/"+secret.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)
	w, _ = suite.request(http.MethodGet, "/tweets/"+secret.ID, suite.bob.ID, nil)
	suite.Equal(http.StatusOK, w.Code)

	w, _ = suite.request(http.MethodPost, "/likes/"+secret.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w, env := suite.request(http.MethodGet, "/tweets/timeline", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var feed timeline.Feed
	suite.decode(env, &feed)
	suite.Require().Len(feed.Tweets, 1)
	suite.Equal(quote.ID, feed.Tweets[0].ID)
	suite.Nil(feed.Tweets[0].QuoteOf)

	_, env = suite.request(http.MethodGet, "/tweets/timeline", suite.bob.ID, nil)
	suite.decode(env, &feed)
	suite.Len(feed.Tweets, 2)
}

func (suite *HandlersTestSuite) TestUpdateTweetOwnerOnly() {
	tweet := suite.postTweet(suite.alice.ID, gin.H{"content": "first"})

	w, _ := suite.request(http.MethodPut, "/tweets/"+tweet.ID, suite.bob.ID, gin.H{"content": "hijack"})
	suite.Equal(http.StatusForbidden, w.Code)

	w, env := suite.request(http.MethodPut, "/tweets/"+tweet.ID, suite.alice.ID, gin.H{"content": "second"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated models.Tweet
	suite.decode(env, &updated)
	suite.Equal("second", updated.Content)
	suite.Equal("second", suite.reloadTweet(tweet.ID).Content)
}

func (suite *HandlersTestSuite) TestTogglePin() {
	tweet := suite.postTweet(suite.alice.ID, gin.H{"content": "pin me"})

	_, env := suite.request(http.MethodPost, "/tweets/"+tweet.ID+"/pin", suite.alice.ID, nil)
	var body struct {
		Pinned bool `json:"pinned"`
	}
	suite.decode(env, &body)
	suite.True(body.Pinned)

	_, env = suite.request(http.MethodPost, "/tweets/"+tweet.ID+"/pin", suite.alice.ID, nil)
	suite.decode(env, &body)
	suite.False(body.Pinned)
}

func (suite *HandlersTestSuite) TestSearchTweetsFallsBackToSQL() {
	suite.postTweet(suite.alice.ID, gin.H{"content": "Golang is fun"})
	suite.postTweet(suite.alice.ID, gin.H{"content": "something else"})
	suite.postTweet(suite.bob.ID, gin.H{"content": "private golang notes", "visibility": "private"})

	w, env := suite.request(http.MethodGet, "/tweets/search?q=golang", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var feed timeline.Feed
	suite.decode(env, &feed)
	suite.Require().Len(feed.Tweets, 1)
	suite.Equal("Golang is fun", feed.Tweets[0].Content)

	w, _ = suite.request(http.MethodGet, "/tweets/search", suite.alice.ID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

// =============================================================================
// LIKES, BOOKMARKS, RETWEETS
// =============================================================================

func (suite *HandlersTestSuite) TestLikeIsIdempotent() {
	tweet := testutil.CreateTweet(suite.T(), suite.db, suite.bob, "like me", models.VisibilityPublic)

	for i := 0; i < 2; i++ {
		w, env := suite.request(http.MethodPost, "/likes/"+tweet.ID, suite.alice.ID, nil)
		suite.Require().Equal(http.StatusOK, w.Code)
		var body struct {
			Liked      bool `json:"liked"`
			LikesCount int  `json:"likesCount"`
		}
		suite.decode(env, &body)
		suite.True(body.Liked)
		suite.Equal(1, body.LikesCount)
	}
	suite.EqualValues(1, suite.count(&models.Like{}, "tweet_id = ?", tweet.ID))
	suite.EqualValues(1, suite.count(&models.Notification{}, "user_id = ? AND type = ?", suite.bob.ID, models.NotificationLike))
	suite.Equal(1, suite.pusher.count(suite.bob.ID, websocket.MessageTypeNewNotification))

	for i := 0; i < 2; i++ {
		w, _ := suite.request(http.MethodDelete, "/likes/"+tweet.ID, suite.alice.ID, nil)
		suite.Require().Equal(http.StatusOK, w.Code)
	}
	suite.EqualValues(0, suite.count(&models.Like{}, "tweet_id = ?", tweet.ID))
	suite.Equal(0, suite.reloadTweet(tweet.ID).LikesCount)
	suite.EqualValues(0, suite.count(&models.Notification{}, "user_id = ?", suite.bob.ID))
}

func (suite *HandlersTestSuite) TestLikeOwnTweetDoesNotNotify() {
	tweet := testutil.CreateTweet(suite.T(), suite.db, suite.alice, "mine", models.VisibilityPublic)
	w, _ := suite.request(http.MethodPost, "/likes/"+tweet.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.EqualValues(0, suite.count(&models.Notification{}, "user_id = ?", suite.alice.ID))
}

func (suite *HandlersTestSuite) TestGetLikers() {
	tweet := testutil.CreateTweet(suite.T(), suite.db, suite.alice, "popular", models.VisibilityPublic)
	suite.request(http.MethodPost, "/likes/"+tweet.ID, suite.bob.ID, nil)
	suite.request(http.MethodPost, "/likes/"+tweet.ID, suite.carol.ID, nil)

	w, env := suite.request(http.MethodGet, "/likes/"+tweet.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Users []models.User `json:"users"`
	}
	suite.decode(env, &body)
	suite.Len(body.Users, 2)
}

func (suite *HandlersTestSuite) TestBookmarkIsIdempotent() {
	first := testutil.CreateTweet(suite.T(), suite.db, suite.bob, "save me", models.VisibilityPublic)
	second := testutil.CreateTweet(suite.T(), suite.db, suite.bob, "save me too", models.VisibilityPublic)

	for i := 0; i < 2; i++ {
		w, _ := suite.request(http.MethodPost, "/bookmarks/"+first.ID, suite.alice.ID, nil)
		suite.Require().Equal(http.StatusOK, w.Code)
	}
	suite.EqualValues(1, suite.count(&models.Bookmark{}, "user_id = ?", suite.alice.ID))

	suite.request(http.MethodPost, "/bookmarks/"+second.ID, suite.alice.ID, nil)
	w, env := suite.request(http.MethodGet, "/bookmarks", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var feed timeline.Feed
	suite.decode(env, &feed)
	suite.Require().Len(feed.Tweets, 2)
	suite.True(feed.Tweets[0].IsBookmarked)

	for i := 0; i < 2; i++ {
		w, _ := suite.request(http.MethodDelete, "/bookmarks/"+first.ID, suite.alice.ID, nil)
		suite.Require().Equal(http.StatusOK, w.Code)
	}
	suite.EqualValues(1, suite.count(&models.Bookmark{}, "user_id = ?", suite.alice.ID))
}

func (suite *HandlersTestSuite) TestDuplicateRetweetConflicts() {
	tweet := testutil.CreateTweet(suite.T(), suite.db, suite.bob, "share me", models.VisibilityPublic)

	w, _ := suite.request(http.MethodPost, "/retweets/"+tweet.ID, suite.alice.ID, gin.H{"comment": "nice"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.Equal(1, suite.reloadTweet(tweet.ID).RetweetCount)

	w, env := suite.request(http.MethodPost, "/retweets/"+tweet.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("CONFLICT", env.Code)
	suite.Equal(1, suite.reloadTweet(tweet.ID).RetweetCount)

	_, env = suite.request(http.MethodGet, "/retweets/"+tweet.ID+"/status", suite.alice.ID, nil)
	var status struct {
		IsRetweeted bool `json:"isRetweeted"`
	}
	suite.decode(env, &status)
	suite.True(status.IsRetweeted)

	_, env = suite.request(http.MethodGet, "/retweets/me", suite.alice.ID, nil)
	var mine struct {
		Retweets []models.Retweet `json:"retweets"`
	}
	suite.decode(env, &mine)
	suite.Require().Len(mine.Retweets, 1)
	suite.Equal(tweet.ID, mine.Retweets[0].Tweet.ID)
	suite.True(mine.Retweets[0].Tweet.IsRetweeted)

	w, _ = suite.request(http.MethodDelete, "/retweets/"+tweet.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(0, suite.reloadTweet(tweet.ID).RetweetCount)

	w, _ = suite.request(http.MethodDelete, "/retweets/"+tweet.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

// =============================================================================
// FOLLOWS AND NOTIFICATIONS
// =============================================================================

func (suite *HandlersTestSuite) TestFollowIsIdempotent() {
	for i := 0; i < 2; i++ {
		w, _ := suite.request(http.MethodPost, "/follows/"+suite.bob.ID, suite.alice.ID, nil)
		suite.Require().Equal(http.StatusOK, w.Code)
	}
	suite.EqualValues(1, suite.count(&models.Follow{}, "follower_id = ? AND following_id = ?", suite.alice.ID, suite.bob.ID))
	suite.EqualValues(1, suite.count(&models.Notification{}, "user_id = ? AND type = ?", suite.bob.ID, models.NotificationFollow))

	var bob models.User
	suite.Require().NoError(suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	suite.Equal(1, bob.FollowersCount)

	w, env := suite.request(http.MethodGet, "/follows/"+suite.bob.ID+"/followers", suite.carol.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Users []models.User `json:"users"`
	}
	suite.decode(env, &body)
	suite.Require().Len(body.Users, 1)
	suite.Equal(suite.alice.ID, body.Users[0].ID)
	suite.Empty(body.Users[0].Email)

	for i := 0; i < 2; i++ {
		w, _ := suite.request(http.MethodDelete, "/follows/"+suite.bob.ID, suite.alice.ID, nil)
		suite.Require().Equal(http.StatusOK, w.Code)
	}
	suite.EqualValues(0, suite.count(&models.Follow{}, "follower_id = ?", suite.alice.ID))
	suite.Require().NoError(suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	suite.Equal(0, bob.FollowersCount)
}

func (suite *HandlersTestSuite) TestFollowRejectsSelfAndUnknown() {
	w, _ := suite.request(http.MethodPost, "/follows/"+suite.alice.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodPost, "/follows/00000000-0000-0000-0000-000000000000", suite.alice.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestNotificationsReadFlow() {
	tweet := testutil.CreateTweet(suite.T(), suite.db, suite.alice, "notify me", models.VisibilityPublic)
	suite.request(http.MethodPost, "/likes/"+tweet.ID, suite.bob.ID, nil)
	suite.request(http.MethodPost, "/follows/"+suite.alice.ID, suite.carol.ID, nil)

	_, env := suite.request(http.MethodGet, "/notifications/unread-count", suite.alice.ID, nil)
	var unread struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	suite.decode(env, &unread)
	suite.EqualValues(2, unread.UnreadCount)

	_, env = suite.request(http.MethodGet, "/notifications", suite.alice.ID, nil)
	var list []models.Notification
	suite.decode(env, &list)
	suite.Require().Len(list, 2)
	suite.NotNil(list[0].FromUser)

	w, _ := suite.request(http.MethodPatch, "/notifications/"+list[0].ID+"/read", suite.bob.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
	w, _ = suite.request(http.MethodPatch, "/notifications/"+list[0].ID+"/read", suite.alice.ID, nil)
	suite.Equal(http.StatusOK, w.Code)

	w, _ = suite.request(http.MethodPatch, "/notifications/read-all", suite.alice.ID, nil)
	suite.Equal(http.StatusOK, w.Code)
	_, env = suite.request(http.MethodGet, "/notifications/unread-count", suite.alice.ID, nil)
	suite.decode(env, &unread)
	suite.EqualValues(0, unread.UnreadCount)
}

// A retweet row committed by a concurrent request is reported as a conflict
func (suite *HandlersTestSuite) TestRetweetUniqueIndexConflicts() {
	tweet := testutil.CreateTweet(suite.T(), suite.db, suite.bob, "racing", models.VisibilityPublic)
	suite.Require().NoError(suite.db.Create(&models.Retweet{UserID: suite.alice.ID, TweetID: tweet.ID}).Error)

	w, env := suite.request(http.MethodPost, "/retweets/"+tweet.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusConflict, w.Code, w.Body.String())
	suite.Equal("CONFLICT", env.Code)
	suite.Equal(0, suite.reloadTweet(tweet.ID).RetweetCount)
	suite.EqualValues(1, suite.count(&models.Retweet{}, "tweet_id = ?", tweet.ID))
}

func (suite *HandlersTestSuite) TestLikesCountFallsBackWhenUnreadable() {
	tweet := testutil.CreateTweet(suite.T(), suite.db, suite.bob, "counted", models.VisibilityPublic)

	_, err := counter(context.Background(), tweet.ID, "no_such_column")
	suite.Error(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	suite.Equal(7, likesCount(ctx, &models.Tweet{ID: tweet.ID, LikesCount: 7}))
	suite.Equal(0, likesCount(context.Background(), tweet))
}
