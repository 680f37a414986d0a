package models

import "time"

const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

// LicenseRecord is the single mutable document kept per school.
type LicenseRecord struct {
	ID           string    `json:"id"`
	SchoolCode   string    `json:"schoolCode"`
	SchoolName   string    `json:"schoolName,omitempty"`
	ContactEmail string    `json:"contactEmail,omitempty"`
	ExpiryDate   time.Time `json:"expiryDate"`
	IsActive     bool      `json:"isActive"`
}

// LicenseUpdate carries the only two fields a renewal is allowed to touch.
type LicenseUpdate struct {
	ExpiryDate time.Time `json:"expiryDate"`
	IsActive   bool      `json:"isActive"`
}

func (l LicenseRecord) Status(now time.Time) string {
	if l.IsActive && l.ExpiryDate.After(now) {
		return StatusActive
	}
	return StatusExpired
}

func (l *LicenseRecord) Apply(update LicenseUpdate) {
	l.ExpiryDate = update.ExpiryDate.UTC()
	l.IsActive = update.IsActive
}
