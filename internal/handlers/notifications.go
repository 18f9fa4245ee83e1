package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/util"
)

const notificationPageSize = 50

// GetNotifications returns the latest notifications, newest first
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	notifications := []*models.Notification{}
	err := database.DB.WithContext(c.Request.Context()).
		Preload("FromUser", models.SummaryScope).
		Preload("Tweet").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(notificationPageSize).
		Find(&notifications).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load notifications", err)
		return
	}
	for _, n := range notifications {
		if n.Tweet != nil && !n.Tweet.VisibleTo(userID) {
			n.Tweet = nil
		}
	}
	util.RespondOK(c, notifications, "")
}

// GetUnreadNotificationCount returns the badge count
// GET /api/v1/notifications/unread-count
func (h *Handlers) GetUnreadNotificationCount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var count int64
	err := database.DB.WithContext(c.Request.Context()).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		util.RespondInternalError(c, "failed to count notifications", err)
		return
	}
	util.RespondOK(c, gin.H{"unreadCount": count}, "")
}

// MarkNotificationRead marks one of the viewer's notifications read
// PATCH /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	result := database.DB.WithContext(c.Request.Context()).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Update("read", true)
	if result.Error != nil {
		util.RespondInternalError(c, "failed to update notification", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "notification")
		return
	}
	util.RespondOK(c, gin.H{"id": c.Param("id"), "read": true}, "")
}

// MarkAllNotificationsRead marks every unread notification read
// PATCH /api/v1/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	result := database.DB.WithContext(c.Request.Context()).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		util.RespondInternalError(c, "failed to update notifications", result.Error)
		return
	}
	util.RespondOK(c, gin.H{"updated": result.RowsAffected}, "all notifications marked read")
}
