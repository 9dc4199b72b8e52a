package workflow

import "strings"

// Role identifies the kind of actor requesting a transition. The host supplies it per call.
type Role string

const (
	RoleAuditor    Role = "AUDITOR"
	RoleManager    Role = "MANAGER"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleOther      Role = "OTHER"
)

var validRoles = map[Role]bool{
	RoleAuditor:    true,
	RoleManager:    true,
	RoleSuperAdmin: true,
	RoleOther:      true,
}

// Roles returns every known role
func Roles() []Role {
	return []Role{RoleAuditor, RoleManager, RoleSuperAdmin, RoleOther}
}

// ParseRole accepts "manager", "Super-Admin", "super_admin" and similar spellings
func ParseRole(s string) (Role, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	if normalized == "SUPERADMIN" {
		normalized = string(RoleSuperAdmin)
	}
	r := Role(normalized)
	return r, r.IsValid()
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is one of the known roles
func (r Role) IsValid() bool {
	return validRoles[r]
}
