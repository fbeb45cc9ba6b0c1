package model

import "time"

// Role names stored in users.role.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// BloodGroups lists the accepted ABO/Rh blood group labels.
var BloodGroups = []string{"O+", "O-", "A+", "A-", "B+", "B-", "AB+", "AB-"}

// ValidBloodGroup reports whether g is one of BloodGroups.
func ValidBloodGroup(g string) bool {
	for _, b := range BloodGroups {
		if g == b {
			return true
		}
	}
	return false
}

// User represents an application user record as stored in the `users`
// table.  Besides credentials it carries the user's emergency health
// card: blood group, allergies and up to three emergency contacts.
//
// Fields:
//
//	ID                – primary key identifier of the user.
//	Email             – unique, lower-cased email address.
//	PasswordHash      – bcrypt hashed password.
//	Role              – USER or ADMIN.
//	Card              – emergency health card fields.
//	CreatedAt         – timestamp of creation.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Role         string
	Card         HealthCard
	CreatedAt    time.Time
}

// HealthCard holds the editable part of a user's profile.  Contact2 and
// Contact3 may be empty.
type HealthCard struct {
	Name       string
	BloodGroup string
	Allergies  string
	Contact1   string
	Contact2   string
	Contact3   string
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token value is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
