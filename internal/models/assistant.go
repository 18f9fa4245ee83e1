package models

import (
	"time"

	"gorm.io/gorm"
)

// AssistantThread is one AI chat session
type AssistantThread struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"userId"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Filled by a COUNT subquery when listing threads
	MessagesCount int `gorm:"->;-:migration" json:"messagesCount"`
}

// AssistantMessage is one turn in a thread, written by the user or the assistant
type AssistantMessage struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	ThreadID    string    `gorm:"type:uuid;not null;index:idx_assistant_messages_thread,priority:1" json:"threadId"`
	UserID      string    `gorm:"type:uuid;not null;index" json:"userId"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	IsAssistant bool      `gorm:"default:false" json:"isAssistant"`
	CreatedAt   time.Time `gorm:"index:idx_assistant_messages_thread,priority:2" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *AssistantThread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = generateUUID()
	}
	return nil
}

func (m *AssistantMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}
