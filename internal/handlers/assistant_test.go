package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/assistant"
	"github.com/zfogg/chirp/internal/models"
)

func (suite *HandlersTestSuite) createThread(userID string) *models.AssistantThread {
	w, env := suite.request(http.MethodPost, "/assistant/threads", userID, nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var thread models.AssistantThread
	suite.decode(env, &thread)
	return &thread
}

// =============================================================================
// ASSISTANT
// =============================================================================

func (suite *HandlersTestSuite) TestAssistantConversation() {
	thread := suite.createThread(suite.alice.ID)
	path := "/assistant/threads/" + thread.ID

	w, env := suite.request(http.MethodPost, path+"/messages", suite.alice.ID, gin.H{"message": "hello"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var exchange assistant.Exchange
	suite.decode(env, &exchange)
	suite.Equal("hello", exchange.UserMessage.Message)
	suite.True(exchange.AssistantMessage.IsAssistant)
	suite.Equal("You said: hello", exchange.AssistantMessage.Message)

	w, _ = suite.request(http.MethodPost, path+"/continue", suite.alice.ID, gin.H{"message": "again"})
	suite.Require().Equal(http.StatusCreated, w.Code)

	_, env = suite.request(http.MethodGet, path+"/messages", suite.alice.ID, nil)
	var messages []models.AssistantMessage
	suite.decode(env, &messages)
	suite.Require().Len(messages, 4)
	suite.Equal("hello", messages[0].Message)

	_, env = suite.request(http.MethodGet, "/assistant/threads", suite.alice.ID, nil)
	var threads []models.AssistantThread
	suite.decode(env, &threads)
	suite.Require().Len(threads, 1)
	suite.Equal(4, threads[0].MessagesCount)

	w, _ = suite.request(http.MethodGet, path+"/messages", suite.bob.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestAssistantGeneratorFailureRollsBack() {
	thread := suite.createThread(suite.alice.ID)
	suite.handlers.SetAssistant(assistant.NewService(suite.db, &assistant.EchoGenerator{Err: stderrors.New("model offline")}))

	w, env := suite.request(http.MethodPost, "/assistant/threads/"+thread.ID+"/messages", suite.alice.ID, gin.H{"message": "anyone there?"})
	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("INTERNAL_ERROR", env.Code)
	suite.EqualValues(0, suite.count(&models.AssistantMessage{}, "thread_id = ?", thread.ID))
}

func (suite *HandlersTestSuite) TestAssistantMessageEditing() {
	thread := suite.createThread(suite.alice.ID)
	_, env := suite.request(http.MethodPost, "/assistant/threads/"+thread.ID+"/messages", suite.alice.ID, gin.H{"message": "draft"})
	var exchange assistant.Exchange
	suite.decode(env, &exchange)

	w, env := suite.request(http.MethodPut, "/assistant/messages/"+exchange.UserMessage.ID, suite.alice.ID, gin.H{"message": "final"})
	suite.Require().Equal(http.StatusOK, w.Code)
	var edited models.AssistantMessage
	suite.decode(env, &edited)
	suite.Equal("final", edited.Message)

	w, _ = suite.request(http.MethodPut, "/assistant/messages/"+exchange.AssistantMessage.ID, suite.alice.ID, gin.H{"message": "rewrite the AI"})
	suite.Equal(http.StatusNotFound, w.Code)

	w, _ = suite.request(http.MethodGet, "/assistant/messages/"+exchange.UserMessage.ID, suite.bob.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w, _ = suite.request(http.MethodDelete, "/assistant/messages/"+exchange.AssistantMessage.ID, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	w, _ = suite.request(http.MethodGet, "/assistant/messages/"+exchange.AssistantMessage.ID, suite.alice.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestAssistantStatsAndClear() {
	thread := suite.createThread(suite.alice.ID)
	path := "/assistant/threads/" + thread.ID
	suite.request(http.MethodPost, path+"/messages", suite.alice.ID, gin.H{"message": "abcd"})

	_, env := suite.request(http.MethodGet, "/assistant/stats", suite.alice.ID, nil)
	var stats assistant.Stats
	suite.decode(env, &stats)
	suite.EqualValues(2, stats.TotalConversations)
	suite.Len(stats.Breakdown, 2)
	for _, b := range stats.Breakdown {
		suite.EqualValues(1, b.Count)
		if b.Type == "user_messages" {
			suite.EqualValues(4, b.TotalMessagesLength)
			suite.InDelta(4.0, b.AvgMessageLength, 0.001)
		}
	}

	w, env := suite.request(http.MethodDelete, path+"/messages", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var cleared struct {
		Deleted int64 `json:"deleted"`
	}
	suite.decode(env, &cleared)
	suite.EqualValues(2, cleared.Deleted)

	w, _ = suite.request(http.MethodDelete, path, suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.EqualValues(0, suite.count(&models.AssistantThread{}, "id = ?", thread.ID))
}
