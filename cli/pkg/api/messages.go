package api

import (
	"fmt"

	"github.com/zfogg/chirp/cli/pkg/client"
)

// SendMessage sends a direct message with optional file attachments
func SendMessage(to, text string, files []string) (*Message, error) {
	req := client.GetClient().R().SetMultipartFormData(map[string]string{"to": to, "text": text})
	for _, path := range files {
		req.SetFile("files", path)
	}
	resp, err := req.Post("/api/v1/messages")

	var msg Message
	if _, err := decodeData(resp, err, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetConversations lists everyone the caller has exchanged messages with
func GetConversations() ([]Conversation, error) {
	var out []Conversation
	err := get("/api/v1/messages/conversations", nil, &out)
	return out, err
}

// GetConversation pages through the messages with one user, newest first
func GetConversation(userID string, opts ListOptions) (*MessagePage, error) {
	var out MessagePage
	if err := get("/api/v1/messages/conversations/"+userID, opts.query(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUnreadMessageCount counts unread messages addressed to the caller
func GetUnreadMessageCount() (int64, error) {
	var out struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	err := get("/api/v1/messages/unread-count", nil, &out)
	return out.UnreadCount, err
}

// SearchMessages searches the caller's messages
func SearchMessages(q string) ([]Message, error) {
	var out []Message
	err := get("/api/v1/messages/search", map[string]string{"q": q}, &out)
	return out, err
}

// MarkMessageRead marks one received message read
func MarkMessageRead(messageID string) error {
	_, err := send("PATCH", fmt.Sprintf("/api/v1/messages/%s/read", messageID), nil, nil)
	return err
}

// DeleteMessage deletes one of the caller's sent messages
func DeleteMessage(messageID string) error {
	_, err := send("DELETE", "/api/v1/messages/"+messageID, nil, nil)
	return err
}
