package enums

import "fmt"

// Role is the closed vocabulary of caller roles recognized by the access gate.
type Role string

const (
	RoleCustomer         Role = "customer"
	RoleSeller           Role = "seller"
	RoleArchitect        Role = "architect"
	RoleContentModerator Role = "content_moderator"
	RolePlatformAdmin    Role = "platform_admin"
	RoleAdmin            Role = "admin"
	RoleSuperAdmin       Role = "super_admin"
)

var validRoles = []Role{
	RoleCustomer,
	RoleSeller,
	RoleArchitect,
	RoleContentModerator,
	RolePlatformAdmin,
	RoleAdmin,
	RoleSuperAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
