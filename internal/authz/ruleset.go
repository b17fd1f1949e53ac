package authz

import "sync/atomic"

// Ruleset is an immutable role→capability-set mapping. The administrator
// invariant lives here, at construction time: RoleAdministrator always gets
// the universal wildcard and no other role may keep one. HasCapability
// itself has zero knowledge of which role is special.
type Ruleset struct {
	grants map[RoleID]map[Capability]struct{}
}

// NewRuleset builds a Ruleset from role capability grants. The administrator
// entry is forced to the wildcard set; wildcard grants on any other role are
// stripped.
func NewRuleset(grants map[RoleID][]Capability) *Ruleset {
	rs := &Ruleset{grants: make(map[RoleID]map[Capability]struct{}, len(grants)+1)}
	for role, caps := range grants {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			if c == "" {
				continue
			}
			if c == CapabilityAll && role != RoleAdministrator {
				continue
			}
			set[c] = struct{}{}
		}
		rs.grants[role] = set
	}
	rs.grants[RoleAdministrator] = map[Capability]struct{}{CapabilityAll: {}}
	return rs
}

// DefaultRuleset returns the built-in grants: administrator holds the
// wildcard, warga may view the dashboard and the resident registry.
func DefaultRuleset() *Ruleset {
	return NewRuleset(map[RoleID][]Capability{
		RoleWarga: {CapDashboardView, CapResidentsView},
	})
}

// HasCapability reports whether the role's set contains the universal
// wildcard or the exact capability token. Tokens match exactly, never by
// prefix. An unknown role has no set and is denied.
func (rs *Ruleset) HasCapability(role RoleID, capability Capability) bool {
	if rs == nil || capability == "" {
		return false
	}
	set, ok := rs.grants[role]
	if !ok {
		return false
	}
	if _, ok := set[CapabilityAll]; ok {
		return true
	}
	_, ok = set[capability]
	return ok
}

// Roles returns the role identifiers present in the set.
func (rs *Ruleset) Roles() []RoleID {
	roles := make([]RoleID, 0, len(rs.grants))
	for role := range rs.grants {
		roles = append(roles, role)
	}
	return roles
}

// RulesetHolder publishes the current Ruleset to concurrent readers. The
// role set is externally owned and concurrently rewritten by role
// management; gates read whatever set is current when the request arrives.
type RulesetHolder struct {
	current atomic.Pointer[Ruleset]
}

// NewRulesetHolder seeds a holder, falling back to the defaults when rs is
// nil.
func NewRulesetHolder(rs *Ruleset) *RulesetHolder {
	h := &RulesetHolder{}
	if rs == nil {
		rs = DefaultRuleset()
	}
	h.current.Store(rs)
	return h
}

// Rules returns the current Ruleset.
func (h *RulesetHolder) Rules() *Ruleset {
	return h.current.Load()
}

// Swap publishes a new Ruleset. Requests already in flight keep the set they
// started with; the change applies from the next request on.
func (h *RulesetHolder) Swap(rs *Ruleset) {
	if rs == nil {
		return
	}
	h.current.Store(rs)
}
