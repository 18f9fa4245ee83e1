package websocket

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"github.com/zfogg/chirp/cli/pkg/logger"
)

// MessageType is the type field of a realtime frame
type MessageType string

const (
	MessageTypeNewMessage      MessageType = "message.new"
	MessageTypeNewNotification MessageType = "notification.new"
	MessageTypePing            MessageType = "ping"
	MessageTypePong            MessageType = "pong"
	MessageTypeError           MessageType = "error"
	MessageTypeSystem          MessageType = "system"
)

// Message is a frame pushed by the server
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	ID        string          `json:"id,omitempty"`
	ReplyTo   string          `json:"replyTo,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Decode unmarshals the frame's data into target
func (m Message) Decode(target interface{}) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s frame has no data", m.Type)
	}
	return json.Unmarshal(m.Data, target)
}

// Config holds WebSocket client configuration
type Config struct {
	URL                  string
	ConnectTimeoutMs     int
	HeartbeatIntervalMs  int
	ReconnectBaseDelayMs int
	ReconnectMaxDelayMs  int
	MaxReconnectAttempts int
}

// DefaultConfig returns a development configuration
func DefaultConfig() Config {
	return Config{
		URL:                  "ws://localhost:8787/ws",
		ConnectTimeoutMs:     15000,
		HeartbeatIntervalMs:  30000,
		ReconnectBaseDelayMs: 2000,
		ReconnectMaxDelayMs:  30000,
		MaxReconnectAttempts: -1, // unlimited
	}
}

// ConfigForAPI derives the /ws endpoint from the REST base URL
func ConfigForAPI(baseURL string) (Config, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return Config{}, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	default:
		return Config{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	cfg := DefaultConfig()
	cfg.URL = u.String()
	if u.Scheme == "wss" {
		cfg.ReconnectMaxDelayMs = 60000
	}
	return cfg, nil
}

// ConnectionState represents the state of the WebSocket connection
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateError
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateError:
		return "error"
	default:
		return "disconnected"
	}
}

// ConnectionStats holds connection statistics
type ConnectionStats struct {
	MessagesReceived int64
	MessagesSent     int64
	ReconnectCount   int
	LastError        string
	LastLatency      time.Duration
	ConnectedAt      time.Time
	DisconnectedAt   time.Time
}

// Client keeps one realtime connection open, reconnecting with backoff
type Client struct {
	config            Config
	conn              *websocket.Conn
	writeMu           sync.Mutex
	token             string
	state             atomic.Value // ConnectionState
	mu                sync.RWMutex
	reconnectAttempts int
	reconnectDelay    int
	listeners         map[MessageType][]*listener
	listenersMu       sync.RWMutex
	ctx               context.Context
	cancel            context.CancelFunc
	statsLock         sync.RWMutex
	stats             ConnectionStats
}

type listener struct {
	fn func(Message)
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		config:         config,
		listeners:      make(map[MessageType][]*listener),
		ctx:            ctx,
		cancel:         cancel,
		reconnectDelay: config.ReconnectBaseDelayMs,
	}
	client.state.Store(StateDisconnected)
	return client
}

// SetAuthToken sets the access token sent on (re)connect
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Connect establishes the WebSocket connection
func (c *Client) Connect(token string) error {
	c.SetAuthToken(token)
	c.setState(StateConnecting)

	conn, err := c.dial()
	if err != nil {
		c.setState(StateError)
		c.recordError(err.Error())
		return err
	}
	c.attach(conn)

	logger.Debug("WebSocket connected", "url", c.config.URL)
	return nil
}

func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.setState(StateConnected)
	c.reconnectAttempts = 0
	c.reconnectDelay = c.config.ReconnectBaseDelayMs
	c.recordConnected()

	go c.readLoop(conn)
	go c.heartbeatLoop(conn)
}

// Disconnect closes the connection and stops reconnecting
func (c *Client) Disconnect() error {
	c.cancel()

	c.mu.Lock()
	if c.conn != nil {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	c.setState(StateDisconnected)
	c.recordDisconnected()

	logger.Debug("WebSocket disconnected")
	return nil
}

// Done is closed once Disconnect has been called
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// IsConnected returns true if the connection is established
func (c *Client) IsConnected() bool {
	return c.getState() == StateConnected
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	return c.getState()
}

// On subscribes to a message type; the empty type receives every frame.
// The returned func unsubscribes.
func (c *Client) On(msgType MessageType, callback func(Message)) func() {
	l := &listener{fn: callback}
	c.listenersMu.Lock()
	c.listeners[msgType] = append(c.listeners[msgType], l)
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		ls := c.listeners[msgType]
		for i, existing := range ls {
			if existing == l {
				c.listeners[msgType] = append(ls[:i], ls[i+1:]...)
				break
			}
		}
	}
}

// Send writes a frame to the server
func (c *Client) Send(msgType MessageType, data interface{}) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.write(conn, msgType, data)
}

func (c *Client) write(conn *websocket.Conn, msgType MessageType, data interface{}) error {
	frame := map[string]interface{}{
		"type":      msgType,
		"timestamp": time.Now().UnixMilli(),
	}
	if data != nil {
		frame["data"] = data
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		return err
	}
	c.recordMessageSent()
	return nil
}

// GetStats returns connection statistics
func (c *Client) GetStats() ConnectionStats {
	c.statsLock.RLock()
	defer c.statsLock.RUnlock()
	return c.stats
}

func (c *Client) dial() (*websocket.Conn, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	dialCtx, cancel := context.WithTimeout(c.ctx, time.Duration(c.config.ConnectTimeoutMs)*time.Millisecond)
	defer cancel()
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), nil)
	if err != nil && resp != nil {
		return nil, fmt.Errorf("websocket handshake failed with HTTP %d: %w", resp.StatusCode, err)
	}
	return conn, err
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.recordError(err.Error())
			logger.Warn("WebSocket read error", "error", err)
			go c.handleDisconnect(conn)
			return
		}

		c.recordMessageReceived()
		if msg.Type == MessageTypePong {
			c.recordPong(msg)
		}
		c.emit(msg)
	}
}

func (c *Client) emit(msg Message) {
	c.listenersMu.RLock()
	callbacks := append([]*listener{}, c.listeners[msg.Type]...)
	callbacks = append(callbacks, c.listeners[""]...)
	c.listenersMu.RUnlock()

	for _, l := range callbacks {
		l.fn(msg)
	}
}

func (c *Client) heartbeatLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(time.Duration(c.config.HeartbeatIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			current := c.conn
			c.mu.RUnlock()
			if current != conn {
				return
			}
			ping := map[string]int64{"clientTime": time.Now().UnixMilli()}
			if err := c.write(conn, MessageTypePing, ping); err != nil {
				logger.Debug("Failed to send heartbeat", "error", err)
			}
		}
	}
}

func (c *Client) handleDisconnect(dead *websocket.Conn) {
	c.mu.Lock()
	if c.conn != dead {
		c.mu.Unlock()
		return
	}
	c.conn.Close()
	c.conn = nil
	c.mu.Unlock()

	c.setState(StateReconnecting)
	c.recordDisconnected()

	for {
		if c.config.MaxReconnectAttempts >= 0 && c.reconnectAttempts >= c.config.MaxReconnectAttempts {
			c.setState(StateError)
			logger.Error("Max reconnection attempts reached")
			return
		}

		backoff := time.Duration(c.reconnectDelay) * time.Millisecond
		jitter := time.Duration(rand.Intn(1000)) * time.Millisecond
		waitTime := backoff + jitter

		logger.Debug("Reconnecting WebSocket", "attempt", c.reconnectAttempts+1, "wait_ms", waitTime.Milliseconds())

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(waitTime):
		}

		conn, err := c.dial()
		if err != nil {
			c.reconnectAttempts++
			c.recordError(err.Error())
			c.reconnectDelay = int(math.Min(
				float64(c.reconnectDelay*2),
				float64(c.config.ReconnectMaxDelayMs),
			))
			continue
		}

		c.statsLock.Lock()
		c.stats.ReconnectCount++
		c.statsLock.Unlock()

		c.attach(conn)
		logger.Debug("WebSocket reconnected")
		return
	}
}

func (c *Client) setState(state ConnectionState) {
	c.state.Store(state)
}

func (c *Client) getState() ConnectionState {
	return c.state.Load().(ConnectionState)
}

func (c *Client) recordPong(msg Message) {
	var pong struct {
		Latency int64 `json:"latency"`
	}
	if err := msg.Decode(&pong); err != nil {
		return
	}
	c.statsLock.Lock()
	c.stats.LastLatency = time.Duration(pong.Latency) * time.Millisecond
	c.statsLock.Unlock()
}

func (c *Client) recordMessageReceived() {
	c.statsLock.Lock()
	c.stats.MessagesReceived++
	c.statsLock.Unlock()
}

func (c *Client) recordMessageSent() {
	c.statsLock.Lock()
	c.stats.MessagesSent++
	c.statsLock.Unlock()
}

func (c *Client) recordError(errMsg string) {
	c.statsLock.Lock()
	c.stats.LastError = errMsg
	c.statsLock.Unlock()
}

func (c *Client) recordConnected() {
	c.statsLock.Lock()
	c.stats.ConnectedAt = time.Now()
	c.statsLock.Unlock()
}

func (c *Client) recordDisconnected() {
	c.statsLock.Lock()
	c.stats.DisconnectedAt = time.Now()
	c.statsLock.Unlock()
}
