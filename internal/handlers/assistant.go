package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/util"
)

type assistantMessageInput struct {
	Message string `json:"message" binding:"required"`
}

// CreateAssistantThread starts a new AI chat thread
// POST /api/v1/assistant/threads
func (h *Handlers) CreateAssistantThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	thread, err := h.assistant.CreateThread(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondCreated(c, thread, "thread created")
}

// ListAssistantThreads lists the viewer's threads with message counts
// GET /api/v1/assistant/threads
func (h *Handlers) ListAssistantThreads(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	threads, err := h.assistant.ListThreads(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, threads, "")
}

// DeleteAssistantThread deletes a thread and its messages
// DELETE /api/v1/assistant/threads/:threadId
func (h *Handlers) DeleteAssistantThread(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if err := h.assistant.DeleteThread(c.Request.Context(), userID, c.Param("threadId")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"id": c.Param("threadId")}, "thread deleted")
}

// SendAssistantMessage sends one turn without prior context
// POST /api/v1/assistant/threads/:threadId/messages
func (h *Handlers) SendAssistantMessage(c *gin.Context) {
	h.sendAssistantMessage(c, false)
}

// ContinueAssistantThread sends one turn with the thread's recent history as context
// POST /api/v1/assistant/threads/:threadId/continue
func (h *Handlers) ContinueAssistantThread(c *gin.Context) {
	h.sendAssistantMessage(c, true)
}

func (h *Handlers) sendAssistantMessage(c *gin.Context, withHistory bool) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req assistantMessageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	exchange, err := h.assistant.Send(c.Request.Context(), userID, c.Param("threadId"), req.Message, withHistory)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondCreated(c, exchange, "")
}

// GetAssistantMessages lists a thread's messages oldest first
// GET /api/v1/assistant/threads/:threadId/messages
func (h *Handlers) GetAssistantMessages(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	messages, err := h.assistant.Messages(c.Request.Context(), userID, c.Param("threadId"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, messages, "")
}

// ClearAssistantMessages deletes every message in a thread
// DELETE /api/v1/assistant/threads/:threadId/messages
func (h *Handlers) ClearAssistantMessages(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	deleted, err := h.assistant.ClearMessages(c.Request.Context(), userID, c.Param("threadId"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"deleted": deleted}, "messages deleted")
}

// GetAssistantMessage returns one of the viewer's messages
// GET /api/v1/assistant/messages/:messageId
func (h *Handlers) GetAssistantMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	msg, err := h.assistant.GetMessage(c.Request.Context(), userID, c.Param("messageId"))
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, msg, "")
}

// UpdateAssistantMessage edits one of the viewer's own turns
// PUT /api/v1/assistant/messages/:messageId
func (h *Handlers) UpdateAssistantMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var req assistantMessageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}
	msg, err := h.assistant.UpdateMessage(c.Request.Context(), userID, c.Param("messageId"), req.Message)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, msg, "message updated")
}

// DeleteAssistantMessage deletes one message
// DELETE /api/v1/assistant/messages/:messageId
func (h *Handlers) DeleteAssistantMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if err := h.assistant.DeleteMessage(c.Request.Context(), userID, c.Param("messageId")); err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, gin.H{"id": c.Param("messageId")}, "message deleted")
}

// GetAssistantStats summarizes the viewer's AI chat usage
// GET /api/v1/assistant/stats
func (h *Handlers) GetAssistantStats(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	stats, err := h.assistant.Stats(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err)
		return
	}
	util.RespondOK(c, stats, "")
}
