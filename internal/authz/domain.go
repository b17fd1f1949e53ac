// Package authz contains the role resolution and permission evaluation core.
//
// Every protected boundary (route gate, page gate, API gate) funnels its
// allow/deny decision through this package so that independent call sites
// reach the same answer from the same inputs: the verified subject, the
// profile store, and the role capability sets. Ambiguity always degrades to
// the least privileged role, never to administrator.
package authz

import (
	"context"
	"fmt"
)

// Subject is a verified actor as reported by the identity provider. It is
// immutable for the lifetime of a request; the authorization core never
// writes it.
type Subject struct {
	// ID is the opaque subject identifier, also the profile key.
	ID string
	// RoleHint is the optional coarse role claim embedded in the identity
	// provider's metadata. It is a weaker trust signal than the profile
	// store and is consulted only on the fallback path.
	RoleHint string
}

// RoleID names a role. The two system-reserved roles are closed constants;
// additional roles are open-ended identifiers resolved against the role
// store, and an unknown identifier always evaluates as non-privileged.
type RoleID string

const (
	// RoleAdministrator is the system-reserved administrator role. Its
	// capability set is always the universal wildcard.
	RoleAdministrator RoleID = "admin"
	// RoleWarga is the system-reserved default resident role. It is the
	// outcome of every failed or ambiguous resolution.
	RoleWarga RoleID = "warga"
)

// AdminRoleHint is the claim-bundle marker that maps to RoleAdministrator on
// the fallback path. Any other hint value maps to RoleWarga.
const AdminRoleHint = "admin"

// Capability is a single permitted-action token, matched exactly.
type Capability string

// CapabilityAll is the universal wildcard. Only the administrator role may
// carry it; the Ruleset constructor enforces that.
const CapabilityAll Capability = "*"

// The enumerated capability set. Unknown tokens are always denied because no
// role's set can contain them.
const (
	CapDashboardView    Capability = "dashboard.view"
	CapResidentsView    Capability = "residents.view"
	CapResidentsEdit    Capability = "residents.edit"
	CapResidentsDelete  Capability = "residents.delete"
	CapTransactionsView Capability = "transactions.view"
	CapTransactionsEdit Capability = "transactions.edit"
	CapCategoriesManage Capability = "categories.manage"
	CapUsersManage      Capability = "users.manage"
	CapRolesView        Capability = "roles.view"
	CapRolesManage      Capability = "roles.manage"
	CapSettingsView     Capability = "settings.view"
	CapSettingsManage   Capability = "settings.manage"
)

// ProfileLookupKind tags the outcome of a profile store read.
type ProfileLookupKind int

const (
	// ProfileFound means the store returned exactly one profile row.
	ProfileFound ProfileLookupKind = iota
	// ProfileNotFound means the store answered but holds no row for the
	// subject. Not an error: accounts may be provisioned without profiles.
	ProfileNotFound
	// ProfileStoreError means the store itself failed.
	ProfileStoreError
)

// ProfileLookupResult is the tagged outcome of a profile store read. The
// resolver pattern-matches all three variants explicitly instead of folding
// absence and failure into one catch-all.
type ProfileLookupResult struct {
	Kind ProfileLookupKind
	Role RoleID
	Err  error
}

// FoundProfile tags a successful lookup carrying the profile's role.
func FoundProfile(role RoleID) ProfileLookupResult {
	return ProfileLookupResult{Kind: ProfileFound, Role: role}
}

// ProfileMissing tags an answered lookup with no row.
func ProfileMissing() ProfileLookupResult {
	return ProfileLookupResult{Kind: ProfileNotFound}
}

// ProfileError tags a failed lookup.
func ProfileError(err error) ProfileLookupResult {
	if err == nil {
		err = fmt.Errorf("authz: profile store error")
	}
	return ProfileLookupResult{Kind: ProfileStoreError, Err: err}
}

// ProfileStore is the read side of the persisted subject→role mapping.
type ProfileStore interface {
	LookupRole(ctx context.Context, subjectID string) ProfileLookupResult
}
