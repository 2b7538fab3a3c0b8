package user

import (
	"context"
	"fmt"

	"campus_notifier/internal/domain/notification"
)

// Repository defines read access to users and their notification flags.
type Repository interface {
	ListAll(ctx context.Context) ([]*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// GetPreferences returns only the flags the user set explicitly.
	GetPreferences(ctx context.Context, id string) (notification.Preferences, error)
}

// ErrNotFound is returned when no user has the requested id.
var ErrNotFound = fmt.Errorf("user not found")
