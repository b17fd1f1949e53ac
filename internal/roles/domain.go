package roles

import (
	"errors"
	"time"

	"github.com/eresidence/eresidence/internal/authz"
)

// Role is a named bundle of capabilities.
type Role struct {
	ID           authz.RoleID
	Name         string
	Description  string
	Capabilities []authz.Capability
	IsSystem     bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrRoleInUse rejects deletion of a role still referenced by profiles.
	ErrRoleInUse = errors.New("role masih digunakan oleh profil warga")
	// ErrRoleSystemReserved rejects deletion of the two system roles.
	ErrRoleSystemReserved = errors.New("role sistem tidak dapat dihapus")
	// ErrNameRequired rejects empty role names.
	ErrNameRequired = errors.New("nama role wajib diisi")
)
