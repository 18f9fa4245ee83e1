package api

import (
	"time"

	json "github.com/json-iterator/go"
)

// Envelope is the wrapper around every API response
type Envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// ErrorResponse is the envelope the API sends on failure
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// User is a Chirp account as the API exposes it
type User struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	FullName         string     `json:"fullName"`
	Email            string     `json:"email,omitempty"`
	Bio              string     `json:"bio"`
	Location         string     `json:"location"`
	Website          string     `json:"website"`
	AvatarURL        string     `json:"avatarUrl"`
	BannerURL        string     `json:"bannerUrl"`
	IsVerified       bool       `json:"isVerified"`
	Roles            []string   `json:"roles,omitempty"`
	FollowersCount   int        `json:"followersCount"`
	FollowingCount   int        `json:"followingCount"`
	TweetsCount      int        `json:"tweetsCount"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	IsFollowing      bool       `json:"isFollowing"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == "admin" {
			return true
		}
	}
	return false
}

// Handle renders @username
func (u *User) Handle() string {
	if u == nil || u.Username == "" {
		return "@unknown"
	}
	return "@" + u.Username
}

// DateOfBirth is sent as separate parts so the server can reject impossible dates
type DateOfBirth struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// AuthResult is returned by login, OTP verification and refresh
type AuthResult struct {
	User           *User  `json:"user,omitempty"`
	AccessToken    string `json:"accessToken,omitempty"`
	RefreshToken   string `json:"refreshToken,omitempty"`
	Requires2FA    bool   `json:"requires2FA,omitempty"`
	UserID         string `json:"userId,omitempty"`
	TwoFactorToken string `json:"twoFactorToken,omitempty"`
}

// TwoFactorSetup is the pending TOTP secret to load into an authenticator app
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauthUrl"`
}

// Media is an attachment on a tweet or message
type Media struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// Tweet is a post, reply or quote
type Tweet struct {
	ID                string    `json:"id"`
	AuthorID          string    `json:"authorId"`
	Author            *User     `json:"author,omitempty"`
	Content           string    `json:"content"`
	Media             []Media   `json:"media"`
	ReplyTo           string    `json:"replyTo,omitempty"`
	IsReply           bool      `json:"isReply"`
	QuoteOfID         string    `json:"quoteOfId,omitempty"`
	QuoteOf           *Tweet    `json:"quoteOf,omitempty"`
	IsQuote           bool      `json:"isQuote"`
	LikesCount        int       `json:"likesCount"`
	RepliesCount      int       `json:"repliesCount"`
	RetweetCount      int       `json:"retweetCount"`
	Visibility        string    `json:"visibility"`
	Pinned            bool      `json:"pinned"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	IsLiked           bool      `json:"isLiked"`
	IsRetweeted       bool      `json:"isRetweeted"`
	IsBookmarked      bool      `json:"isBookmarked"`
	IsFollowingAuthor bool      `json:"isFollowingAuthor"`
}

// TweetPagination is the page metadata of tweet lists
type TweetPagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalTweets int64 `json:"totalTweets"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// Feed is a page of tweets
type Feed struct {
	Tweets     []Tweet         `json:"tweets"`
	Pagination TweetPagination `json:"pagination"`
}

// Pagination is the page metadata of every other list
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// UserList is a page of users (followers, likers, search results)
type UserList struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// Retweet records a user sharing a tweet
type Retweet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TweetID   string    `json:"tweetId"`
	Comment   string    `json:"comment,omitempty"`
	Tweet     *Tweet    `json:"tweet,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeState is returned by like and unlike
type LikeState struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// Notification tells a user someone interacted with them
type Notification struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	FromUserID string    `json:"fromUserId"`
	FromUser   *User     `json:"fromUser,omitempty"`
	TweetID    string    `json:"tweetId,omitempty"`
	Tweet      *Tweet    `json:"tweet,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Message is a direct message
type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"senderId"`
	RecipientID string     `json:"recipientId"`
	Sender      *User      `json:"sender,omitempty"`
	Recipient   *User      `json:"recipient,omitempty"`
	Text        string     `json:"text"`
	Media       []Media    `json:"media"`
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Conversation summarizes the messages exchanged with one user
type Conversation struct {
	User          *User    `json:"user"`
	LastMessage   *Message `json:"lastMessage"`
	UnreadCount   int64    `json:"unreadCount"`
	TotalMessages int64    `json:"totalMessages"`
}

// MessagePage is one page of a conversation, newest first
type MessagePage struct {
	Messages   []Message  `json:"messages"`
	Pagination Pagination `json:"pagination"`
}

// Community is a group users can join and post into
type Community struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	CreatorID    string    `json:"creatorId"`
	IsPrivate    bool      `json:"isPrivate"`
	MembersCount int       `json:"membersCount"`
	CreatedAt    time.Time `json:"createdAt"`
	IsMember     bool      `json:"isMember"`
	Role         string    `json:"role,omitempty"`
}

// CommunityList is a page of communities
type CommunityList struct {
	Communities []Community `json:"communities"`
	Pagination  Pagination  `json:"pagination"`
}

// CommunityMember is a user's membership in a community
type CommunityMember struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"communityId"`
	UserID      string    `json:"userId"`
	Role        string    `json:"role"`
	User        *User     `json:"user,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// MemberList is a page of community members
type MemberList struct {
	Members    []CommunityMember `json:"members"`
	Pagination Pagination        `json:"pagination"`
}

// AssistantThread is a conversation with the assistant
type AssistantThread struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MessagesCount int       `json:"messagesCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AssistantMessage is one turn in an assistant thread
type AssistantMessage struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"threadId"`
	Message     string    `json:"message"`
	IsAssistant bool      `json:"isAssistant"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Exchange is the user's turn and the assistant's reply
type Exchange struct {
	UserMessage      *AssistantMessage `json:"userMessage"`
	AssistantMessage *AssistantMessage `json:"assistantMessage"`
}

// ListOptions are the page and limit query parameters shared by list endpoints
type ListOptions struct {
	Page  int
	Limit int
}

func (o ListOptions) query() map[string]string {
	q := map[string]string{}
	if o.Page > 0 {
		q["page"] = itoa(o.Page)
	}
	if o.Limit > 0 {
		q["limit"] = itoa(o.Limit)
	}
	return q
}
