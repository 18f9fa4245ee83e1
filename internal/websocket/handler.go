package websocket

import (
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/logger"
	"github.com/zfogg/chirp/internal/util"
	"go.uber.org/zap"
)

// Handler upgrades authenticated requests to WebSocket connections.
// The route must sit behind the auth middleware, which accepts ?token= on upgrades.
type Handler struct {
	hub            *Hub
	originPatterns []string
}

// NewHandler creates a handler. originPatterns are host patterns allowed to
// open cross-origin connections; empty means any origin.
func NewHandler(hub *Hub, originPatterns []string) *Handler {
	return &Handler{
		hub:            hub,
		originPatterns: originPatterns,
	}
}

// HandleWebSocket handles GET /ws
func (h *Handler) HandleWebSocket(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	opts := &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionContextTakeover,
	}
	if len(h.originPatterns) == 0 {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = h.originPatterns
	}

	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", logger.WithUserID(user.ID), zap.Error(err))
		return
	}

	client := NewClient(c.Request.Context(), h.hub, conn, user.ID, user.Username)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	_ = client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event: "connected",
		Data: map[string]interface{}{
			"userId":     user.ID,
			"username":   user.Username,
			"serverTime": time.Now().UTC().UnixMilli(),
		},
	}))

	go client.WritePump()
	client.ReadPump()
}

// HandleStats returns hub counters (admin only)
func (h *Handler) HandleStats(c *gin.Context) {
	util.RespondOK(c, gin.H{
		"websocket": h.hub.GetStats(),
		"timestamp": time.Now().UTC(),
	}, "websocket stats")
}

// HandleOnlineStatus reports whether the given users have an open connection
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"userIds" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, util.BindingError(err))
		return
	}

	statuses := make(map[string]bool, len(req.UserIDs))
	connections := make(map[string]int, len(req.UserIDs))
	for _, userID := range req.UserIDs {
		n := h.hub.GetUserConnectionCount(userID)
		statuses[userID] = n > 0
		connections[userID] = n
	}
	util.RespondOK(c, gin.H{"statuses": statuses, "connections": connections}, "online status")
}
