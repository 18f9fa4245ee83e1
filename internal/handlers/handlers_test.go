package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/chirp/internal/assistant"
	"github.com/zfogg/chirp/internal/auth"
	"github.com/zfogg/chirp/internal/config"
	"github.com/zfogg/chirp/internal/database"
	"github.com/zfogg/chirp/internal/email"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/storage"
	"github.com/zfogg/chirp/internal/testutil"
	"github.com/zfogg/chirp/internal/timeline"
	"github.com/zfogg/chirp/internal/util"
	"github.com/zfogg/chirp/internal/websocket"
	"gorm.io/gorm"
)

// recordingPusher captures realtime pushes instead of writing to sockets
type recordingPusher struct {
	mu   sync.Mutex
	sent []pushed
}

type pushed struct {
	UserID string
	Type   string
}

func (p *recordingPusher) SendToUser(userID string, message *websocket.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pushed{UserID: userID, Type: message.Type})
}

func (p *recordingPusher) count(userID, msgType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.sent {
		if s.UserID == userID && s.Type == msgType {
			n++
		}
	}
	return n
}

// envelope mirrors util.Envelope with the payload left raw
type envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Field   string          `json:"field"`
}

// HandlersTestSuite runs the REST API against an in-memory database
type HandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	media    *storage.MemoryStore
	pusher   *recordingPusher
	mailer   *email.MemoryMailer

	alice *models.User
	bob   *models.User
	carol *models.User
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())

	tokens := auth.NewTokenIssuer(config.AuthConfig{
		AccessTokenSecret:  "test-access",
		RefreshTokenSecret: "test-refresh",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    time.Hour,
	})
	suite.mailer = &email.MemoryMailer{}
	authService := auth.NewService(suite.db, tokens, auth.NewMemoryRevocationList(), suite.mailer)

	suite.media = storage.NewMemoryStore()
	suite.pusher = &recordingPusher{}
	suite.handlers = NewHandlers(authService, timeline.NewService(suite.db), suite.media)
	suite.handlers.SetAssistant(assistant.NewService(suite.db, nil))
	suite.handlers.SetPusher(suite.pusher)

	suite.alice = testutil.CreateUser(suite.T(), suite.db, "alice")
	suite.bob = testutil.CreateUser(suite.T(), suite.db, "bob")
	suite.carol = testutil.CreateUser(suite.T(), suite.db, "carol")

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	noLimit := func(c *gin.Context) { c.Next() }
	suite.handlers.RegisterRoutes(suite.router.Group("/api/v1"), mockAuthMiddleware, noLimit)
}

// mockAuthMiddleware authenticates whoever is named in X-User-ID
func mockAuthMiddleware(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		util.RespondUnauthorized(c)
		c.Abort()
		return
	}
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.RespondUnauthorized(c, "not authenticated")
		c.Abort()
		return
	}
	c.Set(util.ContextUserID, user.ID)
	c.Set(util.ContextUser, &user)
	c.Next()
}

// request sends a JSON request as userID ("" for anonymous) and decodes the envelope
func (suite *HandlersTestSuite) request(method, path, userID string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t := suite.T()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// decode unmarshals an envelope's data into v
func (suite *HandlersTestSuite) decode(env envelope, v interface{}) {
	require.NoError(suite.T(), json.Unmarshal(env.Data, v), string(env.Data))
}

func (suite *HandlersTestSuite) count(model interface{}, query string, args ...interface{}) int64 {
	var n int64
	require.NoError(suite.T(), suite.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (suite *HandlersTestSuite) reloadTweet(id string) *models.Tweet {
	var tweet models.Tweet
	require.NoError(suite.T(), suite.db.First(&tweet, "id = ?", id).Error)
	return &tweet
}

// postTweet creates a tweet through the API and returns it
func (suite *HandlersTestSuite) postTweet(userID string, body gin.H) *models.Tweet {
	w, env := suite.request(http.MethodPost, "/tweets", userID, body)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var tweet models.Tweet
	suite.decode(env, &tweet)
	return &tweet
}

// =============================================================================
// ENVELOPE AND AUTH
// =============================================================================

func (suite *HandlersTestSuite) TestProtectedRoutesRequireAuth() {
	for _, path := range []string{"/tweets/timeline", "/notifications", "/messages/conversations", "/communities", "/assistant/threads"} {
		w, env := suite.request(http.MethodGet, path, "", nil)
		suite.Equal(http.StatusUnauthorized, w.Code, path)
		suite.Equal(http.StatusUnauthorized, env.Status, path)
	}
}

func (suite *HandlersTestSuite) TestMeReturnsEnvelope() {
	w, env := suite.request(http.MethodGet, "/users/me", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(http.StatusOK, env.Status)

	var me models.User
	suite.decode(env, &me)
	suite.Equal("alice", me.Username)
}

func (suite *HandlersTestSuite) TestGetUserHidesEmailAndReportsFollowing() {
	_, env := suite.request(http.MethodPost, "/follows/"+suite.bob.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, env.Status)

	w, env := suite.request(http.MethodGet, "/users/"+suite.bob.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var user map[string]interface{}
	suite.decode(env, &user)
	suite.Empty(user["email"])
	suite.Equal(true, user["isFollowing"])
}

func (suite *HandlersTestSuite) TestSearchUsersFallsBackToSQL() {
	w, env := suite.request(http.MethodGet, "/users/search?q=bo", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var body struct {
		Users []models.User `json:"users"`
	}
	suite.decode(env, &body)
	suite.Require().Len(body.Users, 1)
	suite.Equal("bob", body.Users[0].Username)
}
