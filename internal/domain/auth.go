package domain

import "time"

// RoleAdmin is the only role issued to dashboard operators.
const RoleAdmin = "admin"

// Session is the outcome of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Username  string
	UserID    *int64
}
