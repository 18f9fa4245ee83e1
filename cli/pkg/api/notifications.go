package api

import "fmt"

// GetNotifications returns the latest notifications, newest first
func GetNotifications() ([]Notification, error) {
	var out []Notification
	err := get("/api/v1/notifications", nil, &out)
	return out, err
}

// GetUnreadNotificationCount counts unread notifications
func GetUnreadNotificationCount() (int64, error) {
	var out struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	err := get("/api/v1/notifications/unread-count", nil, &out)
	return out.UnreadCount, err
}

// MarkNotificationRead marks one notification read
func MarkNotificationRead(id string) error {
	_, err := send("PATCH", fmt.Sprintf("/api/v1/notifications/%s/read", id), nil, nil)
	return err
}

// MarkAllNotificationsRead marks every notification read and returns how many changed
func MarkAllNotificationsRead() (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	_, err := send("PATCH", "/api/v1/notifications/read-all", nil, &out)
	return out.Updated, err
}
