package enums

import "fmt"

// Role represents a marketplace-level permissions role.
type Role string

const (
	RoleImporter Role = "importer"
	RoleExporter Role = "exporter"
)

var validRoles = []Role{
	RoleImporter,
	RoleExporter,
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
