package dto

// LoginRequest payload for admin login.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// LoginView is the login page model.
type LoginView struct {
	Error         string `json:"error,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// SessionResponse describes the session opened by a JSON login.
type SessionResponse struct {
	Username     string `json:"username"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}
