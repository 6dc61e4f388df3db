package domain

// ContactMethod is how visitors are asked to get in touch.
type ContactMethod string

const (
	ContactMethodEmail ContactMethod = "email"
	ContactMethodSMS   ContactMethod = "sms"
)

// Setting keys persisted in the settings table.
const (
	SettingContactMethod = "contact_method"
	SettingContactPhone  = "contact_phone"
)

// ContactSettings is the storefront contact configuration.
type ContactSettings struct {
	Method ContactMethod `json:"method"`
	Email  string        `json:"email"`
	Phone  string        `json:"phone"`
}
