package service

import (
	"strings"

	"roombook/internal/models"
)

type Operation string

const (
	OpListAll           Operation = "list_all"
	OpListForUser       Operation = "list_for_user"
	OpCreate            Operation = "create"
	OpUpdate            Operation = "update"
	OpCancel            Operation = "cancel"
	OpCheckAvailability Operation = "check_availability"
	OpExport            Operation = "export"
)

type Rule int

const (
	Deny Rule = iota
	Allow
	// OwnerOnly allows the call when the caller's username matches the booking or target owner.
	OwnerOnly
)

// AnyRole matches every authenticated role without an explicit entry.
const AnyRole = "*"

// Policy maps operation and role to a rule. Missing entries deny.
type Policy map[Operation]map[string]Rule

// DefaultPolicy is the access table for the booking operations.
var DefaultPolicy = Policy{
	OpListAll: {
		models.RoleAdmin:           Allow,
		models.RoleFacilityManager: Allow,
		models.RoleAuditor:         Allow,
	},
	OpListForUser: {
		models.RoleAdmin:           Allow,
		models.RoleFacilityManager: Allow,
		models.RoleAuditor:         Allow,
		models.RoleRegular:         OwnerOnly,
	},
	OpCreate: {
		models.RoleAdmin:           Allow,
		models.RoleRegular:         OwnerOnly,
		models.RoleFacilityManager: Allow,
	},
	OpUpdate: {
		models.RoleAdmin:   Allow,
		models.RoleRegular: OwnerOnly,
	},
	OpCancel: {
		models.RoleAdmin:   Allow,
		models.RoleRegular: OwnerOnly,
	},
	OpCheckAvailability: {
		AnyRole: Allow,
	},
	OpExport: {
		models.RoleAdmin:           Allow,
		models.RoleFacilityManager: Allow,
		models.RoleAuditor:         Allow,
	},
}

// roleOrder fixes the order roles are listed in error messages.
var roleOrder = []string{
	models.RoleAdmin,
	models.RoleRegular,
	models.RoleFacilityManager,
	models.RoleAuditor,
	models.RoleModerator,
}

// Rule returns the rule for role on op. Anonymous callers are always denied.
func (p Policy) Rule(op Operation, role string) Rule {
	if role == "" {
		return Deny
	}
	rules := p[op]
	if rule, ok := rules[role]; ok {
		return rule
	}
	return rules[AnyRole]
}

// AllowedRoles lists roles with a non-deny rule on op.
func (p Policy) AllowedRoles(op Operation) []string {
	var roles []string
	for _, role := range roleOrder {
		if p[op][role] != Deny {
			roles = append(roles, role)
		}
	}
	return roles
}

func (p Policy) forbidden(op Operation) *Error {
	return newError(KindAuthorization, "forbidden: requires one of roles: %s", strings.Join(p.AllowedRoles(op), ", "))
}
