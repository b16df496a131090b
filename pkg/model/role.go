package model

// Role represents a coarse-grained authorization category.
type Role int

const (
	RoleUser  Role = iota // Can view own wallet and transfer funds
	RoleAdmin             // Can list users and top up balances
)

// RoleUnknown is what unrecognised role names parse to. It is never valid.
const RoleUnknown Role = -1

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole converts a string to a Role. Unrecognised names map to RoleUnknown.
func ParseRole(s string) Role {
	switch s {
	case "user":
		return RoleUser
	case "admin":
		return RoleAdmin
	default:
		return RoleUnknown
	}
}

// Valid returns true if the role is a recognised value.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// MarshalText encodes the role by name for JSON and YAML.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}
