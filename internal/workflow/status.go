package workflow

import "strings"

// Raw statuses as the remote API reports them. Older records may still carry
// "verified" or "cancelled" on blood requests; those are folded into the
// canonical chain by CanonicalRequestStatus.
const (
	DonationOnProgress = "on_progress"
	DonationCompleted  = "completed"
	DonationCancelled  = "cancelled"

	RequestPending   = "pending"
	RequestRejected  = "rejected"
	RequestConfirmed = "confirmed"
	RequestReady     = "ready"
	RequestCompleted = "completed"
)

// DisplayStatus is the presentation projection of a raw status.
type DisplayStatus struct {
	Label      string `json:"label"`
	ColorClass string `json:"color_class"`
}

// FallbackStatus is rendered for any raw status the dashboard does not
// recognize; an unknown value must degrade, never fail the page.
var FallbackStatus = DisplayStatus{Label: "Tidak Diketahui", ColorClass: "bg-gray-200 text-gray-800"}

var donationDisplay = map[string]DisplayStatus{
	DonationOnProgress: {Label: "Dalam Proses", ColorClass: "bg-yellow-200 text-yellow-800"},
	DonationCompleted:  {Label: "Selesai", ColorClass: "bg-green-200 text-green-800"},
	DonationCancelled:  {Label: "Dibatalkan", ColorClass: "bg-red-200 text-red-800"},
}

var requestDisplay = map[string]DisplayStatus{
	RequestPending:   {Label: "Menunggu Konfirmasi", ColorClass: "bg-yellow-200 text-yellow-800"},
	RequestRejected:  {Label: "Ditolak", ColorClass: "bg-red-200 text-red-800"},
	RequestConfirmed: {Label: "Diterima", ColorClass: "bg-green-200 text-green-800"},
	RequestReady:     {Label: "Kantong Siap", ColorClass: "bg-blue-200 text-blue-800"},
	RequestCompleted: {Label: "Selesai", ColorClass: "bg-green-200 text-green-800"},
}

// DonationDisplay maps a raw donation status to its badge.
func DonationDisplay(status string) DisplayStatus {
	if d, ok := donationDisplay[strings.ToLower(status)]; ok {
		return d
	}
	return FallbackStatus
}

// RequestDisplay maps a raw blood-request status to its badge.
func RequestDisplay(status string) DisplayStatus {
	if d, ok := requestDisplay[CanonicalRequestStatus(status)]; ok {
		return d
	}
	return FallbackStatus
}

// CanonicalRequestStatus folds the legacy aliases into the five-state chain.
func CanonicalRequestStatus(status string) string {
	switch strings.ToLower(status) {
	case "verified":
		return RequestConfirmed
	case "cancelled":
		return RequestRejected
	default:
		return strings.ToLower(status)
	}
}

// DonationStatusOptions lists the filterable donation labels in render order.
func DonationStatusOptions() []DisplayStatus {
	return []DisplayStatus{
		donationDisplay[DonationOnProgress],
		donationDisplay[DonationCompleted],
		donationDisplay[DonationCancelled],
	}
}

// RequestStatusOptions lists the filterable request labels in render order.
func RequestStatusOptions() []DisplayStatus {
	return []DisplayStatus{
		requestDisplay[RequestPending],
		requestDisplay[RequestConfirmed],
		requestDisplay[RequestReady],
		requestDisplay[RequestCompleted],
		requestDisplay[RequestRejected],
	}
}
