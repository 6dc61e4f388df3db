package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountCreated EventType = "account_created"
	EventAccountDeleted EventType = "account_deleted"
	EventProductCreated EventType = "product_created"
	EventProductDeleted EventType = "product_deleted"
	EventSettingChanged EventType = "setting_changed"
)

// Actor identifies the admin that triggered an event. Empty for system
// initiated changes such as bootstrap.
type Actor struct {
	AccountID string `json:"account_id,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccountCreatedPayload payload.
type AccountCreatedPayload struct {
	Username     string `json:"username"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

// AccountDeletedPayload payload.
type AccountDeletedPayload struct {
	Username      string `json:"username"`
	WasSuperAdmin bool   `json:"was_super_admin"`
}

// ProductCreatedPayload payload.
type ProductCreatedPayload struct {
	Name      string  `json:"name"`
	ImagePath *string `json:"image,omitempty"`
}

// ProductDeletedPayload payload.
type ProductDeletedPayload struct {
	Name      string  `json:"name"`
	ImagePath *string `json:"image,omitempty"`
}

// SettingChangedPayload payload.
type SettingChangedPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
