package model

import "errors"

// ErrNotificationNotFound indicates the notification does not exist or belongs to someone else.
var ErrNotificationNotFound = errors.New("notification not found")
