package profiles

import (
	"time"

	"github.com/eresidence/eresidence/internal/authz"
)

// Profile links a subject to its authoritative role and account metadata.
// At most one profile exists per subject identifier; a subject may
// legitimately have none.
type Profile struct {
	ID        string
	FullName  string
	RoleID    authz.RoleID
	IsActive  bool
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch carries partial profile updates. Nil fields are left untouched.
type Patch struct {
	FullName *string
	RoleID   *authz.RoleID
	IsActive *bool
}
