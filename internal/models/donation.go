package models

// LinkedBloodRequest is the request a donation is pledged against, embedded
// by the API under the "blood_requests" key.
type LinkedBloodRequest struct {
	ID        string `json:"id"`
	BloodType string `json:"blood_type"`
	Status    string `json:"status"`
}

// DonationRecord is one donation appointment owned by the remote API. The
// dashboard holds a read-projection only; every field except
// UniqueCodeVerified is refreshed by a full re-fetch after a mutation.
type DonationRecord struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	RequestID          string             `json:"request_id"`
	Status             string             `json:"status"`
	HealthNotes        string             `json:"health_notes"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at"`
	FullName           string             `json:"full_name"`
	PhoneNumber        string             `json:"phone_number"`
	UniqueCode         string             `json:"unique_code"`
	UniqueCodeVerified bool               `json:"unique_code_verified"`
	BloodRequest       LinkedBloodRequest `json:"blood_requests"`
}
