package dto

// ContactMethodRequest payload for POST /admin/contact-method.
type ContactMethodRequest struct {
	ContactMethod string `json:"contactMethod" form:"contactMethod"`
}

// ContactPhoneRequest payload for POST /admin/contact-phone.
type ContactPhoneRequest struct {
	ContactPhone string `json:"contactPhone" form:"contactPhone"`
}
