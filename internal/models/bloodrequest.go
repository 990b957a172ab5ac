package models

// BloodRequestRecord is one patient blood request tracked through the
// confirmation/fulfillment workflow. Server-owned, same projection rules as
// DonationRecord.
type BloodRequestRecord struct {
	ID                 string `json:"id"`
	PatientName        string `json:"patient_name"`
	BloodType          string `json:"blood_type"`
	Quantity           int    `json:"quantity"`
	BloodBagsFulfilled int    `json:"blood_bags_fulfilled"`
	CreatedAt          string `json:"created_at"`
	ExpiryDate         string `json:"expiry_date"`
	Status             string `json:"status"`
	UniqueCodeVerified bool   `json:"unique_code_verified"`
}
