package models

// UserProfile is the partner account as returned by the Darah Tanyoe API.
// The remote schema carries more fields than the dashboard shows; unknown
// fields are preserved round-trip only where the API is the reader.
type UserProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	UserType string `json:"user_type"`

	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
}

// Session is the token pair issued on login and rotated on refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
