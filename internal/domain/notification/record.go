// internal/domain/notification/record.go
package notification

import "time"

// Notification is the in-app record stored under one user.
// Corresponds to the 'notifications' table.
type Notification struct {
	ID       string
	UserID   string
	Type     Type
	Title    string
	Message  string
	SourceID string // id of the article, poll, proposal or event
	IsRead   bool
	// CreatedAt is assigned by the store at write time.
	CreatedAt time.Time
	Data      map[string]string
}
