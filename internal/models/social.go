package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow is a directed follower -> following edge
type Follow struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair,priority:1" json:"followerId"`
	FollowingID string    `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair,priority:2;index" json:"followingId"`
	Follower    *User     `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Following   *User     `gorm:"foreignKey:FollowingID" json:"following,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NotificationType enumerates what a notification is about
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationReply   NotificationType = "reply"
	NotificationRetweet NotificationType = "retweet"
	NotificationFollow  NotificationType = "follow"
	NotificationMention NotificationType = "mention"
	NotificationMessage NotificationType = "message"
	NotificationSystem  NotificationType = "system"
)

// Notification is addressed to UserID and caused by FromUserID
type Notification struct {
	ID         string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string           `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1" json:"userId"`
	Type       NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	FromUserID string           `gorm:"type:uuid;not null;index" json:"fromUserId"`
	FromUser   *User            `gorm:"foreignKey:FromUserID" json:"fromUser,omitempty"`
	TweetID    *string          `gorm:"type:uuid;index" json:"tweetId,omitempty"`
	Tweet      *Tweet           `gorm:"foreignKey:TweetID;constraint:OnDelete:CASCADE" json:"tweet,omitempty"`
	Read       bool             `gorm:"default:false;index" json:"read"`
	CreatedAt  time.Time        `gorm:"index:idx_notifications_user_created,priority:2" json:"createdAt"`
}

// Message is a direct message between two users
type Message struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID    string     `gorm:"type:uuid;not null;index:idx_messages_pair,priority:1" json:"senderId"`
	RecipientID string     `gorm:"type:uuid;not null;index:idx_messages_pair,priority:2;index" json:"recipientId"`
	Sender      *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Recipient   *User      `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Text        string     `gorm:"type:text" json:"text"`
	Media       MediaList  `gorm:"type:jsonb;serializer:json" json:"media"`
	Read        bool       `gorm:"default:false" json:"read"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CounterpartOf returns the other participant from userID's point of view
func (m *Message) CounterpartOf(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	if m.Media == nil {
		m.Media = MediaList{}
	}
	return nil
}
