package domain

import "time"

// SessionState is the lifecycle position of a client session.
type SessionState string

const (
	SessionAnonymous     SessionState = "ANONYMOUS"
	SessionAuthenticated SessionState = "AUTHENTICATED"
	SessionTerminated    SessionState = "TERMINATED"
)

// Session binds a server-issued token to an authenticated account. Role
// claims are copied from the account at login time.
type Session struct {
	Token           string    `json:"token"`
	AccountID       string    `json:"account_id"`
	Username        string    `json:"username"`
	IsAuthenticated bool      `json:"is_authenticated"`
	IsSuperAdmin    bool      `json:"is_super_admin"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}
