package users

import (
	"errors"
	"time"

	"github.com/eresidence/eresidence/internal/authz"
)

// Account is a credentialed login joined with its profile, as shown on
// the user management screen.
type Account struct {
	ID        string
	Email     string
	FullName  string
	RoleID    authz.RoleID
	RoleHint  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount carries the fields needed to provision a login plus its
// profile in one step.
type NewAccount struct {
	Email    string
	Password string
	FullName string
	RoleID   authz.RoleID
}

// AccountPatch carries partial account updates. Nil fields are left
// untouched.
type AccountPatch struct {
	FullName *string
	RoleID   *authz.RoleID
	IsActive *bool
	Password *string
}

var (
	// ErrEmailTaken rejects a signup for an address already registered.
	ErrEmailTaken = errors.New("email sudah terdaftar")
	// ErrUnknownRole rejects provisioning against a role that does not exist.
	ErrUnknownRole = errors.New("role tidak dikenal")
	// ErrSelfDeactivate keeps an administrator from locking themselves out.
	ErrSelfDeactivate = errors.New("tidak dapat menonaktifkan akun sendiri")
)
