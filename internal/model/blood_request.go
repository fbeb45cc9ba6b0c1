package model

import "time"

// Urgency levels for a blood request (blood_requests.urgency).
const (
	UrgencyNormal   = "normal"
	UrgencyUrgent   = "urgent"
	UrgencyCritical = "critical"
)

// Blood request states (blood_requests.status).
const (
	BloodRequestActive    = "active"
	BloodRequestFulfilled = "fulfilled"
)

// ValidUrgency reports whether u is a known urgency level.
func ValidUrgency(u string) bool {
	return u == UrgencyNormal || u == UrgencyUrgent || u == UrgencyCritical
}

// BloodRequest represents a row in the `blood_requests` table.  UserID is
// nil for requests posted without an account.
type BloodRequest struct {
	ID             uint64
	UserID         *uint64
	BloodGroup     string
	Hospital       string
	Urgency        string
	Contact        string
	Location       string
	Status         string
	AdditionalInfo string
	CreatedAt      time.Time
}
