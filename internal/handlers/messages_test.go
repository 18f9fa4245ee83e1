package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/models"
	"github.com/zfogg/chirp/internal/websocket"
)

type upload struct {
	name        string
	contentType string
	body        []byte
}

// multipartRequest posts fields and files as multipart/form-data
func (suite *HandlersTestSuite) multipartRequest(path, userID string, fields map[string]string, files ...upload) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		suite.Require().NoError(mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		suite.Require().NoError(err)
		_, err = part.Write(f.body)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", userID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var env envelope
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (suite *HandlersTestSuite) sendMessage(from, to, text string) *models.Message {
	w, env := suite.request(http.MethodPost, "/messages", from, gin.H{"to": to, "text": text})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var msg models.Message
	suite.decode(env, &msg)
	return &msg
}

// =============================================================================
// DIRECT MESSAGES
// =============================================================================

func (suite *HandlersTestSuite) TestSendMessageNotifiesRecipient() {
	msg := suite.sendMessage(suite.alice.ID, suite.bob.ID, "hey bob")
	suite.Equal("hey bob", msg.Text)
	suite.Require().NotNil(msg.Sender)
	suite.Equal("alice", msg.Sender.Username)

	suite.Equal(1, suite.pusher.count(suite.bob.ID, websocket.MessageTypeNewMessage))
	suite.Equal(1, suite.pusher.count(suite.bob.ID, websocket.MessageTypeNewNotification))
	suite.EqualValues(1, suite.count(&models.Notification{}, "user_id = ? AND type = ?", suite.bob.ID, models.NotificationMessage))
}

func (suite *HandlersTestSuite) TestSendMessageValidation() {
	w, _ := suite.request(http.MethodPost, "/messages", suite.alice.ID, gin.H{"to": suite.alice.ID, "text": "me"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodPost, "/messages", suite.alice.ID, gin.H{"to": suite.bob.ID, "text": "  "})
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodPost, "/messages", suite.alice.ID, gin.H{"to": "00000000-0000-0000-0000-000000000000", "text": "hello?"})
	suite.Equal(http.StatusNotFound, w.Code)

	w, _ = suite.request(http.MethodPost, "/messages", suite.alice.ID, gin.H{"text": "to whom"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestSendMessageWithAttachment() {
	w, env := suite.multipartRequest("/messages", suite.alice.ID,
		map[string]string{"to": suite.bob.ID},
		upload{name: "notes.pdf", contentType: "application/pdf", body: []byte("%PDF-1.4")})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var msg models.Message
	suite.decode(env, &msg)
	suite.Require().Len(msg.Media, 1)
	suite.Equal("document", msg.Media[0].Type)
	suite.Equal(1, suite.media.Len())

	w, _ = suite.request(http.MethodDelete, "/messages/"+msg.ID, suite.bob.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w, _ = suite.request(http.MethodDelete, "/messages/"+msg.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(0, suite.media.Len())
	suite.EqualValues(0, suite.count(&models.Message{}, "id = ?", msg.ID))
}

func (suite *HandlersTestSuite) TestSendMessageRejectsUnsupportedAttachment() {
	w, env := suite.multipartRequest("/messages", suite.alice.ID,
		map[string]string{"to": suite.bob.ID, "text": "run this"},
		upload{name: "virus.exe", contentType: "application/x-msdownload", body: []byte("MZ")})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("files", env.Field)
	suite.EqualValues(0, suite.count(&models.Message{}, "sender_id = ?", suite.alice.ID))
}

func (suite *HandlersTestSuite) TestConversationMarksIncomingRead() {
	suite.sendMessage(suite.bob.ID, suite.alice.ID, "one")
	suite.sendMessage(suite.bob.ID, suite.alice.ID, "two")
	suite.sendMessage(suite.alice.ID, suite.bob.ID, "three")

	_, env := suite.request(http.MethodGet, "/messages/unread-count", suite.alice.ID, nil)
	var unread struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	suite.decode(env, &unread)
	suite.EqualValues(2, unread.UnreadCount)

	w, env := suite.request(http.MethodGet, "/messages/conversations/"+suite.bob.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var convo struct {
		Messages []models.Message `json:"messages"`
	}
	suite.decode(env, &convo)
	suite.Require().Len(convo.Messages, 3)
	suite.Equal("one", convo.Messages[0].Text)
	suite.Equal("three", convo.Messages[2].Text)

	_, env = suite.request(http.MethodGet, "/messages/unread-count", suite.alice.ID, nil)
	suite.decode(env, &unread)
	suite.EqualValues(0, unread.UnreadCount)

	// Bob's copy of alice's message is still unread
	_, env = suite.request(http.MethodGet, "/messages/unread-count", suite.bob.ID, nil)
	suite.decode(env, &unread)
	suite.EqualValues(1, unread.UnreadCount)
}

func (suite *HandlersTestSuite) TestConversationsListOneEntryPerCounterpart() {
	suite.sendMessage(suite.bob.ID, suite.alice.ID, "from bob")
	suite.sendMessage(suite.alice.ID, suite.bob.ID, "to bob")
	suite.sendMessage(suite.carol.ID, suite.alice.ID, "from carol")

	w, env := suite.request(http.MethodGet, "/messages/conversations", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var list []Conversation
	suite.decode(env, &list)
	suite.Require().Len(list, 2)

	suite.Equal(suite.carol.ID, list[0].User.ID)
	suite.EqualValues(1, list[0].TotalMessages)
	suite.EqualValues(1, list[0].UnreadCount)
	suite.Equal("from carol", list[0].LastMessage.Text)

	suite.Equal(suite.bob.ID, list[1].User.ID)
	suite.EqualValues(2, list[1].TotalMessages)
	suite.EqualValues(1, list[1].UnreadCount)
	suite.Equal("to bob", list[1].LastMessage.Text)
}

func (suite *HandlersTestSuite) TestMarkMessageReadRecipientOnly() {
	msg := suite.sendMessage(suite.bob.ID, suite.alice.ID, "read me")

	w, _ := suite.request(http.MethodPatch, "/messages/"+msg.ID+"/read", suite.bob.ID, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w, env := suite.request(http.MethodPatch, "/messages/"+msg.ID+"/read", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var read models.Message
	suite.decode(env, &read)
	suite.True(read.Read)
	suite.NotNil(read.ReadAt)

	w, _ = suite.request(http.MethodPatch, "/messages/00000000-0000-0000-0000-000000000000/read", suite.alice.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestSearchMessages() {
	suite.sendMessage(suite.bob.ID, suite.alice.ID, "Lunch tomorrow?")
	suite.sendMessage(suite.alice.ID, suite.bob.ID, "sure")
	suite.sendMessage(suite.bob.ID, suite.carol.ID, "lunch with carol")

	w, env := suite.request(http.MethodGet, "/messages/search?q=LUNCH", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var found []models.Message
	suite.decode(env, &found)
	suite.Require().Len(found, 1)
	suite.Equal("Lunch tomorrow?", found[0].Text)

	w, _ = suite.request(http.MethodGet, "/messages/search", suite.alice.ID, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}
