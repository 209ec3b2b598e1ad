// models/role.go
package models

import "strings"

// Role is the closed set of session roles. Capability checks go through
// Role.Can rather than ad hoc comparisons at call sites.
type Role string

const (
	RoleManager Role = "MANAGER"
	RoleLeader  Role = "LEADER"
	RoleMember  Role = "MEMBER"
)

// ParseRole returns the role for a claims string, or false for anything
// outside the closed set. Matching is case-insensitive.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(s)); r {
	case RoleManager, RoleLeader, RoleMember:
		return r, true
	}
	return "", false
}

// Capability names a privileged operation a role may perform.
type Capability string

const (
	CapAwardGem     Capability = "award_gem"
	CapManualAdjust Capability = "manual_adjust"
	CapDirectSet    Capability = "direct_set"
	CapUndo         Capability = "undo"
	CapResetAll     Capability = "reset_all"
	CapEditRegistry Capability = "edit_registry"
	CapEditMission  Capability = "edit_mission"
	CapViewActivity Capability = "view_activity"
)

// Can reports whether the role holds the capability. Managers hold
// everything; leaders award gems for their own team (the team binding
// is enforced separately against the session's team id); members browse
// read-only, which still includes the activity feeds.
func (r Role) Can(cap Capability) bool {
	switch r {
	case RoleManager:
		return true
	case RoleLeader:
		return cap == CapAwardGem || cap == CapViewActivity
	case RoleMember:
		return cap == CapViewActivity
	default:
		return false
	}
}

// TeamScoped reports whether the role is bound to a single team.
func (r Role) TeamScoped() bool {
	return r == RoleLeader || r == RoleMember
}
