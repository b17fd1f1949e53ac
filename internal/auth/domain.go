package auth

import "time"

// User represents an authenticated account. RoleHint is the coarse role
// claim copied into the session at login; the authoritative role lives in
// the profile record.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	RoleHint     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
