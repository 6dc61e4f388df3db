package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopfront-dev/storefront/internal/domain"
)

// FormBool decodes HTML checkbox values ("on", "true", "1") as well as JSON
// booleans.
type FormBool bool

// UnmarshalText implements encoding.TextUnmarshaler for form bodies.
func (b *FormBool) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "on", "true", "1", "yes":
		*b = true
	default:
		*b = false
	}
	return nil
}

// UnmarshalJSON accepts a boolean or a string.
func (b *FormBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = FormBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return b.UnmarshalText([]byte(s))
}

// CreateAccountRequest payload for POST /admin/users.
type CreateAccountRequest struct {
	Username     string   `json:"username" form:"username"`
	Password     string   `json:"password" form:"password"`
	IsSuperAdmin FormBool `json:"is_super_admin" form:"is_super_admin"`
}

// AccountResponse is the public view of an admin account. The password hash
// is never part of it.
type AccountResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountsView is the account management page model.
type AccountsView struct {
	Accounts []AccountResponse `json:"accounts"`
	Error    string            `json:"error,omitempty"`
}

// NewAccountResponse maps a domain account.
func NewAccountResponse(a domain.AdminAccount) AccountResponse {
	return AccountResponse{
		ID:           a.ID,
		Username:     a.Username,
		IsSuperAdmin: a.IsSuperAdmin,
		CreatedAt:    a.CreatedAt,
	}
}

// NewAccountResponses maps a list of accounts.
func NewAccountResponses(accounts []domain.AdminAccount) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NewAccountResponse(a))
	}
	return out
}
