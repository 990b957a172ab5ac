package workflow

import (
	"time"

	"github.com/darahtanyoe/mitra-dashboard/internal/models"
)

// DonationFilter narrows the donation list. Zero-value fields match all rows.
type DonationFilter struct {
	BloodType   string
	StatusLabel string
	Date        string // calendar day, 2006-01-02
}

func (f DonationFilter) Match(rec models.DonationRecord) bool {
	if f.BloodType != "" && rec.BloodRequest.BloodType != f.BloodType {
		return false
	}
	if f.StatusLabel != "" && DonationDisplay(rec.Status).Label != f.StatusLabel {
		return false
	}
	if f.Date != "" && !sameCalendarDay(rec.CreatedAt, f.Date) {
		return false
	}
	return true
}

// sameCalendarDay compares a timestamp against a yyyy-mm-dd day, ignoring the
// time-of-day component. An unparsable timestamp never matches.
func sameCalendarDay(timestamp, day string) bool {
	t, err := parseAPITime(timestamp)
	if err != nil {
		return false
	}
	return t.Format("2006-01-02") == day
}

func parseAPITime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// RequestFilter narrows the blood-request list. The two range bounds are
// inclusive and compare the raw ISO strings lexicographically, so a timestamp
// on the ceiling day with a time-of-day component falls outside the ceiling.
type RequestFilter struct {
	BloodType   string
	StatusLabel string
	CreatedFrom string // inclusive floor on created_at
	ExpiryTo    string // inclusive ceiling on expiry_date
}

func (f RequestFilter) Match(rec models.BloodRequestRecord) bool {
	if f.BloodType != "" && rec.BloodType != f.BloodType {
		return false
	}
	if f.StatusLabel != "" && RequestDisplay(rec.Status).Label != f.StatusLabel {
		return false
	}
	if f.CreatedFrom != "" && rec.CreatedAt < f.CreatedFrom {
		return false
	}
	if f.ExpiryTo != "" && rec.ExpiryDate > f.ExpiryTo {
		return false
	}
	return true
}
