package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/testutil"
	"github.com/zfogg/chirp/internal/util"
	"gorm.io/gorm"
)

type TimelineSuite struct {
	suite.Suite
	db    *gorm.DB
	svc   *Service
	ctx   context.Context
	base  time.Time
	alice *models.User
	bob   *models.User
	carol *models.User
}

func TestTimelineSuite(t *testing.T) {
	suite.Run(t, new(TimelineSuite))
}

func (s *TimelineSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.svc = NewService(s.db)
	s.ctx = context.Background()
	s.base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.alice = testutil.CreateUser(s.T(), s.db, "alice")
	s.bob = testutil.CreateUser(s.T(), s.db, "bob")
	s.carol = testutil.CreateUser(s.T(), s.db, "carol")
}

func (s *TimelineSuite) tweet(author *models.User, content string, vis models.Visibility, minute int) *models.Tweet {
	t := &models.Tweet{
		AuthorID:   author.ID,
		Content:    content,
		Visibility: vis,
		CreatedAt:  s.base.Add(time.Duration(minute) * time.Minute),
	}
	s.Require().NoError(s.db.Create(t).Error)
	return t
}

func (s *TimelineSuite) follow(follower, following *models.User) {
	s.Require().NoError(s.db.Create(&models.Follow{FollowerID: follower.ID, FollowingID: following.ID}).Error)
}

func page(n, limit int) util.Page {
	return util.Page{Page: n, Limit: limit}
}

func contents(feed *Feed) []string {
	out := make([]string, 0, len(feed.Tweets))
	for _, t := range feed.Tweets {
		out = append(out, t.Content)
	}
	return out
}

func (s *TimelineSuite) TestHomeExcludesOthersPrivateTweets() {
	s.follow(s.carol, s.alice)
	s.tweet(s.alice, "alice public", models.VisibilityPublic, 1)
	s.tweet(s.alice, "alice private", models.VisibilityPrivate, 2)
	s.tweet(s.bob, "bob protected", models.VisibilityProtected, 3)
	s.tweet(s.carol, "carol private", models.VisibilityPrivate, 4)

	feed, err := s.svc.Home(s.ctx, s.carol.ID, page(1, 10))
	s.Require().NoError(err)
	s.Equal([]string{"carol private", "bob protected", "alice public"}, contents(feed))

	feed, err = s.svc.Home(s.ctx, s.alice.ID, page(1, 10))
	s.Require().NoError(err)
	s.Contains(contents(feed), "alice private")
	s.NotContains(contents(feed), "carol private")
}

func (s *TimelineSuite) TestHomeSkipsReplies() {
	parent := s.tweet(s.alice, "parent", models.VisibilityPublic, 1)
	reply := &models.Tweet{AuthorID: s.bob.ID, Content: "reply", ReplyToID: &parent.ID, IsReply: true, CreatedAt: s.base.Add(time.Hour)}
	s.Require().NoError(s.db.Create(reply).Error)

	feed, err := s.svc.Home(s.ctx, s.carol.ID, page(1, 10))
	s.Require().NoError(err)
	s.Equal([]string{"parent"}, contents(feed))
}

func (s *TimelineSuite) TestHomeRedactsPrivateQuotes() {
	secret := s.tweet(s.alice, "secret", models.VisibilityPrivate, 1)
	quote := &models.Tweet{
		AuthorID:   s.alice.ID,
		Content:    "quoting myself",
		QuoteOfID:  &secret.ID,
		IsQuote:    true,
		Visibility: models.VisibilityPublic,
		CreatedAt:  s.base.Add(2 * time.Minute),
	}
	s.Require().NoError(s.db.Create(quote).Error)

	feed, err := s.svc.Home(s.ctx, s.bob.ID, page(1, 10))
	s.Require().NoError(err)
	s.Require().Len(feed.Tweets, 1)
	s.Equal("quoting myself", feed.Tweets[0].Content)
	s.Nil(feed.Tweets[0].QuoteOf)

	feed, err = s.svc.Home(s.ctx, s.alice.ID, page(1, 10))
	s.Require().NoError(err)
	var found *models.Tweet
	for _, t := range feed.Tweets {
		if t.ID == quote.ID {
			found = t
		}
	}
	s.Require().NotNil(found)
	s.Require().NotNil(found.QuoteOf)
	s.Equal("secret", found.QuoteOf.Content)
	s.Require().NotNil(found.QuoteOf.Author)
	s.Equal("alice", found.QuoteOf.Author.Username)
}

func (s *TimelineSuite) TestHomeAnnotations() {
	t := s.tweet(s.alice, "hello", models.VisibilityPublic, 1)
	s.tweet(s.bob, "other", models.VisibilityPublic, 2)
	s.follow(s.carol, s.alice)
	s.Require().NoError(s.db.Create(&models.Like{UserID: s.carol.ID, TweetID: t.ID}).Error)
	s.Require().NoError(s.db.Create(&models.Bookmark{UserID: s.carol.ID, TweetID: t.ID}).Error)
	s.Require().NoError(s.db.Create(&models.Retweet{UserID: s.carol.ID, TweetID: t.ID}).Error)

	feed, err := s.svc.Home(s.ctx, s.carol.ID, page(1, 10))
	s.Require().NoError(err)
	s.Require().Len(feed.Tweets, 2)

	other, hello := feed.Tweets[0], feed.Tweets[1]
	s.True(hello.IsLiked)
	s.True(hello.IsBookmarked)
	s.True(hello.IsRetweeted)
	s.True(hello.IsFollowingAuthor)
	s.False(other.IsLiked)
	s.False(other.IsFollowingAuthor)
	s.Require().NotNil(hello.Author)
	s.Equal("alice", hello.Author.Username)
	s.Empty(hello.Author.Email, "embedded authors only carry summary columns")
}

func (s *TimelineSuite) TestHomePagination() {
	for i := 0; i < 5; i++ {
		s.tweet(s.alice, "t", models.VisibilityPublic, i)
	}

	feed, err := s.svc.Home(s.ctx, s.bob.ID, page(2, 2))
	s.Require().NoError(err)
	s.Len(feed.Tweets, 2)
	s.Equal(Pagination{CurrentPage: 2, TotalPages: 3, TotalTweets: 5, HasNextPage: true, HasPrevPage: true}, feed.Pagination)

	feed, err = s.svc.Home(s.ctx, s.bob.ID, page(3, 2))
	s.Require().NoError(err)
	s.Len(feed.Tweets, 1)
	s.False(feed.Pagination.HasNextPage)
}

func (s *TimelineSuite) TestUserTweetsPinnedFirst() {
	s.tweet(s.alice, "old", models.VisibilityPublic, 1)
	pinned := s.tweet(s.alice, "pinned", models.VisibilityPublic, 2)
	s.tweet(s.alice, "new", models.VisibilityPublic, 3)
	s.tweet(s.alice, "hidden", models.VisibilityPrivate, 4)
	s.Require().NoError(s.db.Model(pinned).Update("pinned", true).Error)

	feed, err := s.svc.UserTweets(s.ctx, s.bob.ID, s.alice.ID, page(1, 10))
	s.Require().NoError(err)
	s.Equal([]string{"pinned", "new", "old"}, contents(feed))

	feed, err = s.svc.UserTweets(s.ctx, s.alice.ID, s.alice.ID, page(1, 10))
	s.Require().NoError(err)
	s.Equal([]string{"pinned", "hidden", "new", "old"}, contents(feed))
}

func (s *TimelineSuite) TestRepliesOldestFirst() {
	parent := s.tweet(s.alice, "parent", models.VisibilityPublic, 0)
	for i, author := range []*models.User{s.carol, s.bob} {
		reply := &models.Tweet{
			AuthorID:  author.ID,
			Content:   author.Username,
			ReplyToID: &parent.ID,
			IsReply:   true,
			CreatedAt: s.base.Add(time.Duration(i+1) * time.Minute),
		}
		s.Require().NoError(s.db.Create(reply).Error)
	}

	feed, err := s.svc.Replies(s.ctx, s.alice.ID, parent.ID, page(1, 10))
	s.Require().NoError(err)
	s.Equal([]string{"carol", "bob"}, contents(feed))
}

func (s *TimelineSuite) TestBookmarksNewestBookmarkFirst() {
	first := s.tweet(s.alice, "first", models.VisibilityPublic, 1)
	second := s.tweet(s.alice, "second", models.VisibilityPublic, 2)
	private := s.tweet(s.alice, "private", models.VisibilityPrivate, 3)

	s.Require().NoError(s.db.Create(&models.Bookmark{UserID: s.bob.ID, TweetID: second.ID, CreatedAt: s.base.Add(time.Hour)}).Error)
	s.Require().NoError(s.db.Create(&models.Bookmark{UserID: s.bob.ID, TweetID: first.ID, CreatedAt: s.base.Add(2 * time.Hour)}).Error)
	s.Require().NoError(s.db.Create(&models.Bookmark{UserID: s.bob.ID, TweetID: private.ID, CreatedAt: s.base.Add(3 * time.Hour)}).Error)

	feed, err := s.svc.Bookmarks(s.ctx, s.bob.ID, page(1, 10))
	s.Require().NoError(err)
	s.Equal([]string{"first", "second"}, contents(feed))
	s.EqualValues(2, feed.Pagination.TotalTweets)
	for _, t := range feed.Tweets {
		s.True(t.IsBookmarked)
	}
}

func (s *TimelineSuite) TestCommunityFeeds() {
	community := &models.Community{Name: "Gophers", Slug: "gophers", CreatorID: s.alice.ID}
	s.Require().NoError(s.db.Create(community).Error)
	for _, u := range []*models.User{s.alice, s.bob} {
		s.Require().NoError(s.db.Create(&models.CommunityMember{CommunityID: community.ID, UserID: u.ID, Role: models.CommunityRoleMember}).Error)
	}
	s.tweet(s.alice, "alice", models.VisibilityPublic, 1)
	s.tweet(s.bob, "bob private", models.VisibilityPrivate, 2)
	s.tweet(s.carol, "outsider", models.VisibilityPublic, 3)

	feed, err := s.svc.CommunityFeed(s.ctx, s.alice.ID, page(1, 10))
	s.Require().NoError(err)
	s.Equal([]string{"alice"}, contents(feed))

	feed, err = s.svc.CommunityFeed(s.ctx, s.carol.ID, page(1, 10))
	s.Require().NoError(err)
	s.Empty(feed.Tweets)

	feed, err = s.svc.CommunityPosts(s.ctx, s.bob.ID, community.ID, page(1, 10))
	s.Require().NoError(err)
	s.Equal([]string{"bob private", "alice"}, contents(feed))
}

func (s *TimelineSuite) TestSearchFallback() {
	s.tweet(s.alice, "Learning GO today", models.VisibilityPublic, 1)
	s.tweet(s.alice, "go private notes", models.VisibilityPrivate, 2)
	s.tweet(s.bob, "nothing here", models.VisibilityPublic, 3)

	feed, err := s.svc.Search(s.ctx, s.bob.ID, "go", page(1, 10))
	s.Require().NoError(err)
	s.Equal([]string{"Learning GO today"}, contents(feed))

	feed, err = s.svc.Search(s.ctx, s.alice.ID, "GO", page(1, 10))
	s.Require().NoError(err)
	s.Len(feed.Tweets, 2)
}

func (s *TimelineSuite) TestHydrateKeepsOrderAndDropsHidden() {
	a := s.tweet(s.alice, "a", models.VisibilityPublic, 1)
	b := s.tweet(s.alice, "b", models.VisibilityPrivate, 2)
	c := s.tweet(s.bob, "c", models.VisibilityPublic, 3)

	feed, err := s.svc.Hydrate(s.ctx, s.carol.ID, []string{c.ID, b.ID, a.ID, "missing"}, page(1, 10), 4)
	s.Require().NoError(err)
	s.Equal([]string{"c", "a"}, contents(feed))
	s.EqualValues(4, feed.Pagination.TotalTweets)

	feed, err = s.svc.Hydrate(s.ctx, s.carol.ID, nil, page(1, 10), 0)
	s.Require().NoError(err)
	s.Empty(feed.Tweets)
}

func (s *TimelineSuite) TestAnnotateWithoutViewer() {
	secret := s.tweet(s.alice, "secret", models.VisibilityPrivate, 1)
	t := &models.Tweet{ID: "x", AuthorID: s.bob.ID, QuoteOf: secret}
	s.Require().NoError(s.svc.Annotate(s.ctx, "", t))
	s.Nil(t.QuoteOf)
	s.Require().NoError(s.svc.Annotate(s.ctx, s.bob.ID))
}
