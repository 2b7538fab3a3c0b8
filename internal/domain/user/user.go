package user

import (
	"database/sql"
	"time"
)

// User is a member of the campus app. Written by the app; read-only here.
type User struct {
	ID          string
	DisplayName string
	ClassYear   sql.NullString // scope tag, e.g. "2026"
	PushTokens  []string
	CreatedAt   time.Time
}

// InClass reports whether the user's class year is one of scopes.
func (u *User) InClass(scopes []string) bool {
	if !u.ClassYear.Valid || u.ClassYear.String == "" || len(scopes) == 0 {
		return false
	}
	for _, s := range scopes {
		if s == u.ClassYear.String {
			return true
		}
	}
	return false
}
