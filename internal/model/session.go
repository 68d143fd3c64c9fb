package model

import "time"

// Session is the read-only view of the signed-in user, injected into every page.
type Session struct {
	UserID      int64
	Name        string
	Email       string
	Role        UserRole
	Permissions PermissionSet
	Token       string
	ExpiresAt   time.Time
}
