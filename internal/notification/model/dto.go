package model

// ListNotificationsResponse is the body of GET /notifications.
type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Unread        int64          `json:"unread"`
}

// NotificationResponse wraps a single notification.
type NotificationResponse struct {
	Notification Notification `json:"notification"`
}
