package handlers

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/metrics"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/storage"
	"github.com/zfogg/chirp/internal/util"
	"github.com/zfogg/chirp/internal/websocket"
	"gorm.io/gorm"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 100
	messageSearchLimit     = 50
)

// Conversation summarizes the messages exchanged with one counterpart
type Conversation struct {
	User          *models.User    `json:"user"`
	LastMessage   *models.Message `json:"lastMessage"`
	UnreadCount   int64           `json:"unreadCount"`
	TotalMessages int64           `json:"totalMessages"`
}

// SendMessage sends a direct message with optional attachments
// POST /api/v1/messages
func (h *Handlers) SendMessage(c *gin.Context) {
	senderID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req struct {
		To   string `json:"to" form:"to" binding:"required"`
		Text string `json:"text" form:"text"`
	}
	if err := c.ShouldBind(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	files := formFiles(c)
	text := strings.TrimSpace(req.Text)

	if req.To == senderID {
		util.RespondBadRequest(c, "you cannot message yourself")
		return
	}
	if text == "" && len(files) == 0 {
		util.RespondBadRequest(c, "a message needs text or an attachment")
		return
	}
	if utf8.RuneCountInString(text) > util.MaxMessageLength {
		util.RespondValidationError(c, "text", "message is too long")
		return
	}

	var recipient models.User
	if err := database.DB.WithContext(ctx).Select("id").First(&recipient, "id = ?", req.To).Error; err != nil {
		util.HandleDBError(c, err, "recipient")
		return
	}

	media, err := h.uploadMedia(c, util.MessageMediaPolicy, "messages", senderID, files)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}

	msg := &models.Message{SenderID: senderID, RecipientID: recipient.ID, Text: text, Media: media}
	var n *models.Notification
	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		var err error
		n, err = notify(tx, recipient.ID, senderID, models.NotificationMessage, nil)
		return err
	})
	if err != nil {
		storage.DeleteAll(ctx, h.media, media.Keys())
		util.RespondInternalError(c, "failed to send message", err)
		return
	}

	var sender models.User
	if err := database.DB.WithContext(ctx).Scopes(models.SummaryScope).First(&sender, "id = ?", senderID).Error; err == nil {
		msg.Sender = &sender
	}
	h.push(recipient.ID, websocket.MessageTypeNewMessage, msg)
	h.deliver(n)
	metrics.RecordSocialAction("message", "add")
	util.RespondCreated(c, msg, "message sent")
}

// GetConversation pages through the messages exchanged with one user. Each
// page is returned oldest first, and incoming messages are marked read.
// GET /api/v1/messages/conversations/:userId
func (h *Handlers) GetConversation(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	otherID := c.Param("userId")
	ctx := c.Request.Context()
	page := util.ParsePage(c, defaultMessagePageSize, maxMessagePageSize)

	q := database.DB.WithContext(ctx).Model(&models.Message{}).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			viewerID, otherID, otherID, viewerID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.RespondInternalError(c, "failed to load conversation", err)
		return
	}

	messages := []*models.Message{}
	err := q.Session(&gorm.Session{}).
		Preload("Sender", models.SummaryScope).
		Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&messages).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load conversation", err)
		return
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	now := time.Now()
	if err := database.DB.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND read = ?", otherID, viewerID, false).
		Updates(map[string]interface{}{"read": true, "read_at": now}).Error; err != nil {
		util.RespondInternalError(c, "failed to mark messages read", err)
		return
	}

	util.RespondOK(c, gin.H{"messages": messages, "pagination": util.NewPagination(page, total)}, "")
}

// GetConversations lists one entry per counterpart, most recent first
// GET /api/v1/messages/conversations
func (h *Handlers) GetConversations(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	db := database.DB.WithContext(ctx)

	type row struct {
		CounterpartID string
		Total         int64
		Unread        int64
	}
	var rows []row
	err := db.Model(&models.Message{}).
		Select(`CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END AS counterpart_id,
			COUNT(*) AS total,
			SUM(CASE WHEN recipient_id = ? AND read = ? THEN 1 ELSE 0 END) AS unread`,
			viewerID, viewerID, false).
		Where("sender_id = ? OR recipient_id = ?", viewerID, viewerID).
		Group("counterpart_id").
		Order("MAX(created_at) DESC").
		Scan(&rows).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load conversations", err)
		return
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CounterpartID)
	}
	var users []*models.User
	if len(ids) > 0 {
		if err := db.Scopes(models.SummaryScope).Where("id IN ?", ids).Find(&users).Error; err != nil {
			util.RespondInternalError(c, "failed to load conversations", err)
			return
		}
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	conversations := make([]Conversation, 0, len(rows))
	for _, r := range rows {
		var last models.Message
		err := db.Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			viewerID, r.CounterpartID, r.CounterpartID, viewerID).
			Order("created_at DESC").
			First(&last).Error
		if err != nil {
			util.RespondInternalError(c, "failed to load conversations", err)
			return
		}
		conversations = append(conversations, Conversation{
			User:          byID[r.CounterpartID],
			LastMessage:   &last,
			UnreadCount:   r.Unread,
			TotalMessages: r.Total,
		})
	}
	util.RespondOK(c, conversations, "")
}

// MarkMessageRead marks a received message read
// PATCH /api/v1/messages/:id/read
func (h *Handlers) MarkMessageRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var msg models.Message
	if err := database.DB.WithContext(c.Request.Context()).First(&msg, "id = ?", c.Param("id")).Error; err != nil {
		util.HandleDBError(c, err, "message")
		return
	}
	if msg.RecipientID != userID {
		util.RespondForbidden(c, "only the recipient can mark a message read")
		return
	}
	if !msg.Read {
		now := time.Now()
		if err := database.DB.Model(&msg).Updates(map[string]interface{}{"read": true, "read_at": now}).Error; err != nil {
			util.RespondInternalError(c, "failed to update message", err)
			return
		}
		msg.Read = true
		msg.ReadAt = &now
	}
	util.RespondOK(c, &msg, "")
}

// DeleteMessage deletes a sent message and its attachments
// DELETE /api/v1/messages/:id
func (h *Handlers) DeleteMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var msg models.Message
	if err := database.DB.WithContext(ctx).First(&msg, "id = ?", c.Param("id")).Error; err != nil {
		util.HandleDBError(c, err, "message")
		return
	}
	if msg.SenderID != userID {
		util.RespondForbidden(c, "you can only delete messages you sent")
		return
	}
	if err := database.DB.WithContext(ctx).Delete(&msg).Error; err != nil {
		util.RespondInternalError(c, "failed to delete message", err)
		return
	}
	storage.DeleteAll(ctx, h.media, msg.Media.Keys())
	util.RespondOK(c, gin.H{"id": msg.ID}, "message deleted")
}

// GetUnreadMessageCount counts unread incoming messages
// GET /api/v1/messages/unread-count
func (h *Handlers) GetUnreadMessageCount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var count int64
	err := database.DB.WithContext(c.Request.Context()).Model(&models.Message{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		util.RespondInternalError(c, "failed to count messages", err)
		return
	}
	util.RespondOK(c, gin.H{"unreadCount": count}, "")
}

// SearchMessages does a case-insensitive substring search over the viewer's messages
// GET /api/v1/messages/search?q=
func (h *Handlers) SearchMessages(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}

	messages := []*models.Message{}
	err := database.DB.WithContext(c.Request.Context()).
		Preload("Sender", models.SummaryScope).
		Preload("Recipient", models.SummaryScope).
		Where("(sender_id = ? OR recipient_id = ?) AND LOWER(text) LIKE ?", userID, userID, "%"+strings.ToLower(q)+"%").
		Order("created_at DESC").
		Limit(messageSearchLimit).
		Find(&messages).Error
	if err != nil {
		util.RespondInternalError(c, "failed to search messages", err)
		return
	}
	util.RespondOK(c, messages, "")
}
