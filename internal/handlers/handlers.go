package handlers

import (
	"context"
	"time"

	"github.com/zfogg/chirp/internal/assistant"
	"github.com/zfogg/chirp/internal/auth"
	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/search"
	"github.com/zfogg/chirp/internal/storage"
	"github.com/zfogg/chirp/internal/timeline"
	"github.com/zfogg/chirp/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// searchTimeout bounds the Elasticsearch round trip before the SQL fallback kicks in
const searchTimeout = 3 * time.Second

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth      *auth.Service
	timeline  *timeline.Service
	media     storage.MediaStore
	assistant *assistant.Service
	google    *auth.GoogleOAuth
	search    search.Engine
	pusher    websocket.Pusher
	cookies   CookieSettings
	oauth     config.OAuthConfig
}

// NewHandlers creates a new handlers instance. The assistant falls back to
// the echo generator until SetAssistant is called.
func NewHandlers(authService *auth.Service, feed *timeline.Service, media storage.MediaStore) *Handlers {
	if media == nil {
		media = storage.NewMemoryStore()
	}
	return &Handlers{
		auth:      authService,
		timeline:  feed,
		media:     media,
		assistant: assistant.NewService(database.DB, nil),
		cookies:   DefaultCookieSettings(),
	}
}

// SetAssistant sets the AI chat service
func (h *Handlers) SetAssistant(svc *assistant.Service) {
	h.assistant = svc
}

// SetGoogleOAuth enables Google sign-in
func (h *Handlers) SetGoogleOAuth(google *auth.GoogleOAuth, cfg config.OAuthConfig) {
	h.google = google
	h.oauth = cfg
}

// SetSearchEngine sets the Elasticsearch engine; nil keeps the SQL fallback
func (h *Handlers) SetSearchEngine(engine search.Engine) {
	h.search = engine
}

// SetPusher sets the realtime hub used for message.new and notification.new
func (h *Handlers) SetPusher(pusher websocket.Pusher) {
	h.pusher = pusher
}

// SetCookieSettings overrides the session cookie attributes
func (h *Handlers) SetCookieSettings(settings CookieSettings) {
	h.cookies = settings
}

func (h *Handlers) push(userID, msgType string, data interface{}) {
	if h.pusher == nil {
		return
	}
	h.pusher.SendToUser(userID, websocket.NewMessage(msgType, data))
}

// notify stores a notification inside tx. The push happens in afterCommit so a
// rolled-back action never reaches the recipient.
func notify(tx *gorm.DB, recipientID, fromUserID string, kind models.NotificationType, tweetID *string) (*models.Notification, error) {
	if recipientID == fromUserID {
		return nil, nil
	}
	n := &models.Notification{
		UserID:     recipientID,
		FromUserID: fromUserID,
		Type:       kind,
		TweetID:    tweetID,
	}
	if err := tx.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// deliver pushes stored notifications to their recipients with the sender preloaded
func (h *Handlers) deliver(notifications ...*models.Notification) {
	for _, n := range notifications {
		if n == nil {
			continue
		}
		var from models.User
		if err := database.DB.Scopes(models.SummaryScope).First(&from, "id = ?", n.FromUserID).Error; err == nil {
			n.FromUser = &from
		}
		h.push(n.UserID, websocket.MessageTypeNewNotification, n)
	}
}

// unnotify removes the notification an action created when the action is undone
func unnotify(tx *gorm.DB, recipientID, fromUserID string, kind models.NotificationType, tweetID *string) error {
	q := tx.Where("user_id = ? AND from_user_id = ? AND type = ?", recipientID, fromUserID, kind)
	if tweetID != nil {
		q = q.Where("tweet_id = ?", *tweetID)
	}
	return q.Delete(&models.Notification{}).Error
}

// indexTweet keeps the search index in step; failures only log since SQL stays authoritative
func (h *Handlers) indexTweet(ctx context.Context, tweet *models.Tweet) {
	if h.search == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), searchTimeout)
	defer cancel()
	if err := h.search.IndexTweet(ctx, search.TweetToDocument(tweet)); err != nil {
		logger.Log.Warn("Failed to index tweet", logger.WithTweetID(tweet.ID), zap.Error(err))
	}
}

func (h *Handlers) unindexTweet(ctx context.Context, tweetID string) {
	if h.search == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), searchTimeout)
	defer cancel()
	if err := h.search.DeleteTweet(ctx, tweetID); err != nil {
		logger.Log.Warn("Failed to remove tweet from index", logger.WithTweetID(tweetID), zap.Error(err))
	}
}

func (h *Handlers) indexUser(ctx context.Context, user *models.User) {
	if h.search == nil || user == nil || !user.IsVerified {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), searchTimeout)
	defer cancel()
	if err := h.search.IndexUser(ctx, search.UserToDocument(user)); err != nil {
		logger.Log.Warn("Failed to index user", logger.WithUserID(user.ID), zap.Error(err))
	}
}
