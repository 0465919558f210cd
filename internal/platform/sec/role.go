// Copyright (c) 2026 FitHub. All rights reserved.

package sec

// # Principal Roles

// Role represents the authorization level granted to a principal.
//
// The set is closed: authorization is an exact membership test against an
// enumerated allowed-role list declared per endpoint, not a hierarchy.
type Role string

const (
	// Platform operators with unrestricted access
	RoleAdmin Role = "ADMIN"

	// Coaches who publish programs and routines
	RoleTrainer Role = "TRAINER"

	// Default role for registered members following programs
	RoleLearner Role = "LEARNER"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleLearner:
		return true
	}
	return false
}

// In reports whether the role is a member of the allowed set.
func (r Role) In(allowed ...Role) bool {
	for _, candidate := range allowed {
		if r == candidate {
			return true
		}
	}
	return false
}
