package enums

import "fmt"

// MemberRole is the staff role carried in access tokens.
type MemberRole string

const (
	MemberRoleOwner      MemberRole = "owner"
	MemberRoleManager    MemberRole = "manager"
	MemberRoleAgent      MemberRole = "agent"
	MemberRoleAccountant MemberRole = "accountant"
	MemberRoleViewer     MemberRole = "viewer"
)

var validMemberRoles = []MemberRole{
	MemberRoleOwner,
	MemberRoleManager,
	MemberRoleAgent,
	MemberRoleAccountant,
	MemberRoleViewer,
}

// CanFinalizeSale reports whether the role may close a unit sale.
func (m MemberRole) CanFinalizeSale() bool {
	switch m {
	case MemberRoleOwner, MemberRoleManager, MemberRoleAgent:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
