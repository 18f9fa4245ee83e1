package assistant

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxMessageLength bounds a single user turn
const MaxMessageLength = 4000

// Exchange is one user turn and the reply generated for it
type Exchange struct {
	UserMessage      *models.AssistantMessage `json:"userMessage"`
	AssistantMessage *models.AssistantMessage `json:"assistantMessage"`
}

// MessageStats aggregates one side of a user's conversations
type MessageStats struct {
	Type                string  `json:"type"`
	Count               int64   `json:"count"`
	TotalMessagesLength int64   `json:"totalMessagesLength"`
	AvgMessageLength    float64 `json:"avgMessageLength"`
}

type Stats struct {
	TotalConversations int64          `json:"total_conversations"`
	Breakdown          []MessageStats `json:"breakdown"`
}

// Service owns assistant threads and their messages
type Service struct {
	db  *gorm.DB
	gen Generator
	now func() time.Time
}

// NewService falls back to EchoGenerator when gen is nil
func NewService(db *gorm.DB, gen Generator) *Service {
	if gen == nil {
		gen = &EchoGenerator{}
	}
	return &Service{db: db, gen: gen, now: time.Now}
}

// Generator returns the active generator
func (s *Service) Generator() Generator {
	return s.gen
}

func (s *Service) CreateThread(ctx context.Context, userID string) (*models.AssistantThread, error) {
	thread := &models.AssistantThread{
		UserID: userID,
		Name:   fmt.Sprintf("Chat_%d", s.now().UnixMilli()),
	}
	if err := s.db.WithContext(ctx).Create(thread).Error; err != nil {
		return nil, errors.Internal("failed to create thread", err)
	}
	return thread, nil
}

// ListThreads returns the user's threads, newest first, with message counts
func (s *Service) ListThreads(ctx context.Context, userID string) ([]models.AssistantThread, error) {
	var threads []models.AssistantThread
	err := s.db.WithContext(ctx).
		Model(&models.AssistantThread{}).
		Select("assistant_threads.*, (SELECT COUNT(*) FROM assistant_messages WHERE assistant_messages.thread_id = assistant_threads.id) AS messages_count").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&threads).Error
	if err != nil {
		return nil, errors.Internal("failed to list threads", err)
	}
	return threads, nil
}

// DeleteThread removes a thread and all of its messages
func (s *Service) DeleteThread(ctx context.Context, userID, threadID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedThread(tx, userID, threadID); err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", threadID).Delete(&models.AssistantMessage{}).Error; err != nil {
			return errors.Internal("failed to delete thread messages", err)
		}
		if err := tx.Delete(&models.AssistantThread{}, "id = ?", threadID).Error; err != nil {
			return errors.Internal("failed to delete thread", err)
		}
		return nil
	})
}

// Send saves the user's message, generates a reply and saves it, all in one
// transaction. withHistory prefixes the prompt with the thread's recent turns.
// A generator failure rolls back the user message too.
func (s *Service) Send(ctx context.Context, userID, threadID, message string, withHistory bool) (*Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.ValidationError("message", "message is required")
	}
	if len([]rune(message)) > MaxMessageLength {
		return nil, errors.ValidationError("message", fmt.Sprintf("message must be at most %d characters", MaxMessageLength))
	}

	db := s.db.WithContext(ctx)
	if _, err := ownedThread(db, userID, threadID); err != nil {
		return nil, err
	}

	prompt := message
	if withHistory {
		history, err := s.recentMessages(ctx, userID, threadID, maxContextMessages)
		if err != nil {
			return nil, err
		}
		prompt = BuildContextPrompt(history, message)
	}

	exchange := &Exchange{}
	err := db.Transaction(func(tx *gorm.DB) error {
		userMsg := &models.AssistantMessage{
			ThreadID: threadID,
			UserID:   userID,
			Message:  message,
		}
		if err := tx.Create(userMsg).Error; err != nil {
			return errors.Internal("failed to save message", err)
		}

		reply, err := timedGenerate(ctx, s.gen, prompt)
		if err != nil {
			logger.Log.Error("Assistant generation failed",
				logger.WithUserID(userID),
				zap.String("generator", s.gen.Name()),
				zap.Error(err))
			return errors.Internal("AI service error", err)
		}

		aiMsg := &models.AssistantMessage{
			ThreadID:    threadID,
			UserID:      userID,
			Message:     reply,
			IsAssistant: true,
		}
		if err := tx.Create(aiMsg).Error; err != nil {
			return errors.Internal("failed to save reply", err)
		}

		exchange.UserMessage = userMsg
		exchange.AssistantMessage = aiMsg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exchange, nil
}

// recentMessages returns up to limit of the latest messages, oldest first
func (s *Service) recentMessages(ctx context.Context, userID, threadID string, limit int) ([]models.AssistantMessage, error) {
	var latest []models.AssistantMessage
	err := s.db.WithContext(ctx).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Order("created_at DESC, is_assistant DESC").
		Limit(limit).
		Find(&latest).Error
	if err != nil {
		return nil, errors.Internal("failed to load conversation history", err)
	}
	for i, j := 0, len(latest)-1; i < j; i, j = i+1, j-1 {
		latest[i], latest[j] = latest[j], latest[i]
	}
	return latest, nil
}

// Messages returns a thread's messages oldest first
func (s *Service) Messages(ctx context.Context, userID, threadID string) ([]models.AssistantMessage, error) {
	db := s.db.WithContext(ctx)
	if _, err := ownedThread(db, userID, threadID); err != nil {
		return nil, err
	}
	var messages []models.AssistantMessage
	if err := db.Where("thread_id = ?", threadID).Order("created_at ASC, is_assistant ASC").Find(&messages).Error; err != nil {
		return nil, errors.Internal("failed to load messages", err)
	}
	return messages, nil
}

// ClearMessages deletes every message in a thread and returns how many were removed
func (s *Service) ClearMessages(ctx context.Context, userID, threadID string) (int64, error) {
	db := s.db.WithContext(ctx)
	if _, err := ownedThread(db, userID, threadID); err != nil {
		return 0, err
	}
	result := db.Where("thread_id = ? AND user_id = ?", threadID, userID).Delete(&models.AssistantMessage{})
	if result.Error != nil {
		return 0, errors.Internal("failed to delete messages", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *Service) GetMessage(ctx context.Context, userID, messageID string) (*models.AssistantMessage, error) {
	var msg models.AssistantMessage
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", messageID, userID).First(&msg).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("message")
		}
		return nil, errors.Internal("failed to load message", err)
	}
	return &msg, nil
}

// UpdateMessage edits one of the user's own turns. Assistant replies cannot be edited.
func (s *Service) UpdateMessage(ctx context.Context, userID, messageID, text string) (*models.AssistantMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.ValidationError("message", "message is required")
	}

	db := s.db.WithContext(ctx)
	var msg models.AssistantMessage
	err := db.Where("id = ? AND user_id = ? AND is_assistant = ?", messageID, userID, false).First(&msg).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("message")
		}
		return nil, errors.Internal("failed to load message", err)
	}

	msg.Message = text
	if err := db.Save(&msg).Error; err != nil {
		return nil, errors.Internal("failed to update message", err)
	}
	return &msg, nil
}

func (s *Service) DeleteMessage(ctx context.Context, userID, messageID string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", messageID, userID).Delete(&models.AssistantMessage{})
	if result.Error != nil {
		return errors.Internal("failed to delete message", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFound("message")
	}
	return nil
}

// Stats summarizes the user's messages split by author
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	var rows []struct {
		IsAssistant bool
		Count       int64
		TotalLength int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.AssistantMessage{}).
		Select("is_assistant, COUNT(*) AS count, COALESCE(SUM(LENGTH(message)), 0) AS total_length").
		Where("user_id = ?", userID).
		Group("is_assistant").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Internal("failed to compute stats", err)
	}

	stats := &Stats{Breakdown: make([]MessageStats, 0, len(rows))}
	for _, r := range rows {
		kind := "user_messages"
		if r.IsAssistant {
			kind = "ai_messages"
		}
		avg := 0.0
		if r.Count > 0 {
			avg = math.Round(float64(r.TotalLength)/float64(r.Count)*100) / 100
		}
		stats.TotalConversations += r.Count
		stats.Breakdown = append(stats.Breakdown, MessageStats{
			Type:                kind,
			Count:               r.Count,
			TotalMessagesLength: r.TotalLength,
			AvgMessageLength:    avg,
		})
	}
	return stats, nil
}

func ownedThread(db *gorm.DB, userID, threadID string) (*models.AssistantThread, error) {
	var thread models.AssistantThread
	err := db.Where("id = ? AND user_id = ?", threadID, userID).First(&thread).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("thread")
		}
		return nil, errors.Internal("failed to load thread", err)
	}
	return &thread, nil
}
