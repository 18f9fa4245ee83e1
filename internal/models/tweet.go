package models

import (
	"time"

	"gorm.io/gorm"
)

// Visibility is the access scope of a tweet
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// IsValid reports whether v is a known visibility
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityProtected:
		return true
	}
	return false
}

// MediaItem is an uploaded file attached to a tweet or message
type MediaItem struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Key  string `json:"key,omitempty"`
}

// MediaList is serialized as a JSON array column
type MediaList []MediaItem

// Keys returns the storage keys of every item
func (m MediaList) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, item := range m {
		if item.Key != "" {
			keys = append(keys, item.Key)
		}
	}
	return keys
}

// Tweet is a post, a reply (ReplyToID set) or a quote (QuoteOfID set)
type Tweet struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID string `gorm:"type:uuid;not null;index:idx_tweets_author_created,priority:1" json:"authorId"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Content string    `gorm:"type:text;not null" json:"content"`
	Media   MediaList `gorm:"type:jsonb;serializer:json" json:"media"`

	ReplyToID *string `gorm:"type:uuid;index" json:"replyTo,omitempty"`
	ReplyTo   *Tweet  `gorm:"foreignKey:ReplyToID;constraint:OnDelete:SET NULL" json:"-"`
	IsReply   bool    `gorm:"default:false;index" json:"isReply"`

	QuoteOfID *string `gorm:"type:uuid;index" json:"quoteOfId,omitempty"`
	QuoteOf   *Tweet  `gorm:"foreignKey:QuoteOfID;constraint:OnDelete:SET NULL" json:"quoteOf,omitempty"`
	IsQuote   bool    `gorm:"default:false" json:"isQuote"`

	LikesCount   int `gorm:"default:0" json:"likesCount"`
	RepliesCount int `gorm:"default:0" json:"repliesCount"`
	RetweetCount int `gorm:"default:0" json:"retweetCount"`

	Visibility Visibility `gorm:"type:varchar(16);not null;index" json:"visibility"`
	Pinned     bool       `gorm:"default:false" json:"pinned"`

	CreatedAt time.Time `gorm:"index:idx_tweets_author_created,priority:2;index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Per-viewer annotations, filled by the timeline and tweet handlers
	IsLiked           bool `gorm:"-" json:"isLiked"`
	IsRetweeted       bool `gorm:"-" json:"isRetweeted"`
	IsBookmarked      bool `gorm:"-" json:"isBookmarked"`
	IsFollowingAuthor bool `gorm:"-" json:"isFollowingAuthor"`
}

// VisibleTo reports whether viewerID may see the tweet
func (t *Tweet) VisibleTo(viewerID string) bool {
	return t.Visibility != VisibilityPrivate || t.AuthorID == viewerID
}

// RedactQuote drops the embedded quote when the viewer may not see it
func (t *Tweet) RedactQuote(viewerID string) {
	if t.QuoteOf != nil && !t.QuoteOf.VisibleTo(viewerID) {
		t.QuoteOf = nil
	}
}

func (t *Tweet) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = generateUUID()
	}
	if t.Visibility == "" {
		t.Visibility = VisibilityPublic
	}
	if t.Media == nil {
		t.Media = MediaList{}
	}
	return nil
}

// Like marks a tweet as liked by a user
type Like struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_tweet,priority:1" json:"userId"`
	TweetID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_tweet,priority:2;index" json:"tweetId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Tweet     *Tweet    `gorm:"foreignKey:TweetID;constraint:OnDelete:CASCADE" json:"tweet,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Bookmark saves a tweet for later
type Bookmark struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_user_tweet,priority:1" json:"userId"`
	TweetID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_user_tweet,priority:2;index" json:"tweetId"`
	Tweet     *Tweet    `gorm:"foreignKey:TweetID;constraint:OnDelete:CASCADE" json:"tweet,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Retweet re-shares a tweet, optionally with a comment
type Retweet struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_retweets_user_tweet,priority:1" json:"userId"`
	TweetID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_retweets_user_tweet,priority:2;index" json:"tweetId"`
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Tweet     *Tweet    `gorm:"foreignKey:TweetID;constraint:OnDelete:CASCADE" json:"tweet,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (b *Bookmark) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = generateUUID()
	}
	return nil
}

func (r *Retweet) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
