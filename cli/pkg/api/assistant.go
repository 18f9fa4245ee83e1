package api

import "fmt"

// CreateAssistantThread opens a new assistant conversation
func CreateAssistantThread() (*AssistantThread, error) {
	var out AssistantThread
	if _, err := send("POST", "/api/v1/assistant/threads", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAssistantThreads lists the caller's threads, most recent first
func ListAssistantThreads() ([]AssistantThread, error) {
	var out []AssistantThread
	err := get("/api/v1/assistant/threads", nil, &out)
	return out, err
}

// DeleteAssistantThread deletes a thread and its messages
func DeleteAssistantThread(threadID string) error {
	_, err := send("DELETE", "/api/v1/assistant/threads/"+threadID, nil, nil)
	return err
}

// AskAssistant sends one turn. With history the thread's recent messages
// are passed to the model as context.
func AskAssistant(threadID, message string, withHistory bool) (*Exchange, error) {
	action := "messages"
	if withHistory {
		action = "continue"
	}
	var out Exchange
	path := fmt.Sprintf("/api/v1/assistant/threads/%s/%s", threadID, action)
	if _, err := send("POST", path, map[string]string{"message": message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAssistantMessages lists a thread's messages in order
func GetAssistantMessages(threadID string) ([]AssistantMessage, error) {
	var out []AssistantMessage
	err := get(fmt.Sprintf("/api/v1/assistant/threads/%s/messages", threadID), nil, &out)
	return out, err
}

// ClearAssistantMessages empties a thread but keeps it
func ClearAssistantMessages(threadID string) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	_, err := send("DELETE", fmt.Sprintf("/api/v1/assistant/threads/%s/messages", threadID), nil, &out)
	return out.Deleted, err
}
