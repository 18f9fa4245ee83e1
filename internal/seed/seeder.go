package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is set on every seeded account
const DefaultPassword = "password123"

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a new seeder instance. A zero seed picks a random one.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	_ = gofakeit.Seed(seed)
	return &Seeder{db: db, rng: rand.New(rand.NewSource(seed))}
}

// Volume controls how much data SeedDev creates
type Volume struct {
	Users       int
	Tweets      int
	Follows     int
	Likes       int
	Messages    int
	Communities int
}

// DevVolume is enough data to make every feed and list page
var DevVolume = Volume{Users: 50, Tweets: 400, Follows: 300, Likes: 1200, Messages: 200, Communities: 8}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(v Volume) error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(v.Users)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating follows...")
	if err := s.seedFollows(users, v.Follows); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating tweets...")
	tweets, err := s.seedTweets(users, v.Tweets)
	if err != nil {
		return fmt.Errorf("failed to seed tweets: %w", err)
	}

	log("Creating likes, bookmarks and retweets...")
	if err := s.seedEngagement(users, tweets, v.Likes); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	log("Creating direct messages...")
	if err := s.seedMessages(users, v.Messages); err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}

	log("Creating communities...")
	if err := s.seedCommunities(users, v.Communities); err != nil {
		return fmt.Errorf("failed to seed communities: %w", err)
	}

	log("Recounting counters...")
	return database.RecountCounters(s.db)
}

// SeedTest creates a handful of fixed accounts with a little activity
func (s *Seeder) SeedTest() error {
	specs := []struct {
		username string
		fullName string
	}{
		{"alice", "Alice Smith"},
		{"bob", "Bob Johnson"},
		{"charlie", "Charlie Brown"},
		{"diana", "Diana Prince"},
		{"eve", "Eve Wilson"},
	}

	hash, err := passwordHash()
	if err != nil {
		return err
	}

	var users []models.User
	for _, spec := range specs {
		var user models.User
		err := s.db.Where("username = ?", spec.username).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}
		user = models.User{
			Username:     spec.username,
			FullName:     spec.fullName,
			Email:        spec.username + "@example.com",
			PasswordHash: &hash,
			IsVerified:   true,
			AvatarURL:    avatarURL(spec.username),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	if err := s.seedFollows(users, len(users)*2); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}
	tweets, err := s.seedTweets(users, 20)
	if err != nil {
		return fmt.Errorf("failed to seed tweets: %w", err)
	}
	if err := s.seedEngagement(users, tweets, 30); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}
	return database.RecountCounters(s.db)
}

// Clean removes every row, children first
func (s *Seeder) Clean() error {
	tables := []string{
		"assistant_messages",
		"assistant_threads",
		"community_members",
		"communities",
		"messages",
		"notifications",
		"retweets",
		"bookmarks",
		"likes",
		"tweets",
		"follows",
		"password_resets",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func passwordHash() (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func avatarURL(seed string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", seed)
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := passwordHash()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	seen := make(map[string]bool)
	for len(users) < count {
		fullName := gofakeit.Name()
		username := strings.ToLower(util.UsernameBase(fullName) + fmt.Sprint(s.rng.Intn(1000)))
		if seen[username] {
			continue
		}
		seen[username] = true

		createdAt := gofakeit.DateRange(time.Now().AddDate(-2, 0, 0), time.Now())
		dob := gofakeit.DateRange(time.Now().AddDate(-60, 0, 0), time.Now().AddDate(-18, 0, 0))
		users = append(users, models.User{
			Username:     username,
			FullName:     fullName,
			Email:        username + "@" + strings.ToLower(gofakeit.Word()) + ".example.com",
			PasswordHash: &hash,
			Bio:          gofakeit.HipsterSentence(),
			Location:     fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
			AvatarURL:    avatarURL(username),
			IsVerified:   true,
			DateOfBirth:  &dob,
			CreatedAt:    createdAt,
		})
	}

	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Seeder) pair(users []models.User) (models.User, models.User, bool) {
	if len(users) < 2 {
		return models.User{}, models.User{}, false
	}
	a := users[s.rng.Intn(len(users))]
	b := users[s.rng.Intn(len(users))]
	return a, b, a.ID != b.ID
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	var follows []models.Follow
	for i := 0; i < count; i++ {
		follower, following, ok := s.pair(users)
		if !ok {
			continue
		}
		follows = append(follows, models.Follow{FollowerID: follower.ID, FollowingID: following.ID})
	}
	if len(follows) == 0 {
		return nil
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&follows, 200).Error
}

var visibilities = []models.Visibility{
	models.VisibilityPublic, models.VisibilityPublic, models.VisibilityPublic,
	models.VisibilityProtected, models.VisibilityPrivate,
}

func (s *Seeder) seedTweets(users []models.User, count int) ([]models.Tweet, error) {
	if len(users) == 0 {
		return nil, nil
	}
	tweets := make([]models.Tweet, 0, count)
	for i := 0; i < count; i++ {
		author := users[s.rng.Intn(len(users))]
		content := gofakeit.HipsterSentence()
		// Roughly one tweet in ten mentions someone
		if s.rng.Intn(10) == 0 {
			content += " @" + users[s.rng.Intn(len(users))].Username
		}
		tweet := models.Tweet{
			AuthorID:   author.ID,
			Content:    content,
			Visibility: visibilities[s.rng.Intn(len(visibilities))],
			CreatedAt:  gofakeit.DateRange(author.CreatedAt, time.Now()),
		}
		// Later tweets may reply to earlier public ones
		if len(tweets) > 0 && s.rng.Intn(4) == 0 {
			parent := tweets[s.rng.Intn(len(tweets))]
			if parent.Visibility == models.VisibilityPublic && !parent.IsReply {
				tweet.ReplyToID = &parent.ID
				tweet.IsReply = true
				tweet.Visibility = models.VisibilityPublic
				if tweet.CreatedAt.Before(parent.CreatedAt) {
					tweet.CreatedAt = parent.CreatedAt.Add(time.Minute)
				}
			}
		}
		if err := s.db.Create(&tweet).Error; err != nil {
			return nil, err
		}
		tweets = append(tweets, tweet)
	}
	return tweets, nil
}

func (s *Seeder) seedEngagement(users []models.User, tweets []models.Tweet, likes int) error {
	if len(users) == 0 || len(tweets) == 0 {
		return nil
	}
	var (
		likeRows     []models.Like
		bookmarkRows []models.Bookmark
		retweetRows  []models.Retweet
	)
	for i := 0; i < likes; i++ {
		user := users[s.rng.Intn(len(users))]
		tweet := tweets[s.rng.Intn(len(tweets))]
		if tweet.Visibility != models.VisibilityPublic {
			continue
		}
		likeRows = append(likeRows, models.Like{UserID: user.ID, TweetID: tweet.ID})
		switch s.rng.Intn(8) {
		case 0:
			bookmarkRows = append(bookmarkRows, models.Bookmark{UserID: user.ID, TweetID: tweet.ID})
		case 1:
			if user.ID != tweet.AuthorID {
				retweetRows = append(retweetRows, models.Retweet{UserID: user.ID, TweetID: tweet.ID})
			}
		}
	}

	ignore := s.db.Clauses(clause.OnConflict{DoNothing: true})
	if len(likeRows) > 0 {
		if err := ignore.CreateInBatches(&likeRows, 200).Error; err != nil {
			return err
		}
	}
	if len(bookmarkRows) > 0 {
		if err := ignore.CreateInBatches(&bookmarkRows, 200).Error; err != nil {
			return err
		}
	}
	if len(retweetRows) > 0 {
		if err := ignore.CreateInBatches(&retweetRows, 200).Error; err != nil {
			return err
		}
	}
	logger.Log.Info("Seeded engagement",
		zap.Int("likes", len(likeRows)),
		zap.Int("bookmarks", len(bookmarkRows)),
		zap.Int("retweets", len(retweetRows)))
	return nil
}

func (s *Seeder) seedMessages(users []models.User, count int) error {
	var messages []models.Message
	for i := 0; i < count; i++ {
		sender, recipient, ok := s.pair(users)
		if !ok {
			continue
		}
		messages = append(messages, models.Message{
			SenderID:    sender.ID,
			RecipientID: recipient.ID,
			Text:        gofakeit.HipsterSentence(),
			Read:        s.rng.Intn(2) == 0,
			CreatedAt:   gofakeit.DateRange(time.Now().AddDate(0, -1, 0), time.Now()),
		})
	}
	if len(messages) == 0 {
		return nil
	}
	return s.db.CreateInBatches(&messages, 200).Error
}

func (s *Seeder) seedCommunities(users []models.User, count int) error {
	if len(users) == 0 {
		return nil
	}
	used := make(map[string]bool)
	for i := 0; i < count; i++ {
		name := gofakeit.Adjective() + " " + gofakeit.NounCollectivePeople()
		slug := util.Slugify(name)
		if used[slug] {
			continue
		}
		used[slug] = true

		admin := users[s.rng.Intn(len(users))]
		community := models.Community{
			Name:        name,
			Slug:        slug,
			Description: gofakeit.HipsterSentence(),
			CreatorID:   admin.ID,
			IsPrivate:   s.rng.Intn(5) == 0,
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&community).Error; err != nil {
				return err
			}
			members := []models.CommunityMember{{CommunityID: community.ID, UserID: admin.ID, Role: models.CommunityRoleAdmin}}
			for _, u := range users {
				if u.ID != admin.ID && s.rng.Intn(4) == 0 {
					members = append(members, models.CommunityMember{CommunityID: community.ID, UserID: u.ID})
				}
			}
			return tx.CreateInBatches(&members, 200).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}
