package search

import (
	"time"

	"github.com/zfogg/chirp/internal/models"
)

// TweetDocument is the indexed form of a tweet
type TweetDocument struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	Username   string    `json:"username,omitempty"`
	Content    string    `json:"content"`
	Visibility string    `json:"visibility"`
	IsReply    bool      `json:"is_reply"`
	LikesCount int       `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserDocument is the indexed form of a user profile
type UserDocument struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Bio            string    `json:"bio,omitempty"`
	FollowersCount int       `json:"followers_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// TweetToDocument builds the document; the author's username is included when preloaded
func TweetToDocument(t *models.Tweet) TweetDocument {
	doc := TweetDocument{
		ID:         t.ID,
		AuthorID:   t.AuthorID,
		Content:    t.Content,
		Visibility: string(t.Visibility),
		IsReply:    t.IsReply,
		LikesCount: t.LikesCount,
		CreatedAt:  t.CreatedAt,
	}
	if t.Author != nil {
		doc.Username = t.Author.Username
	}
	return doc
}

func UserToDocument(u *models.User) UserDocument {
	return UserDocument{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName,
		Bio:            u.Bio,
		FollowersCount: u.FollowersCount,
		CreatedAt:      u.CreatedAt,
	}
}
