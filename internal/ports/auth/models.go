package auth

import "strings"

// Role del llamante, tal como viene en el token.
type Role string

const (
	RoleAdopter Role = "adopter"
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdopter:
		return RoleAdopter, true
	case RoleOwner:
		return RoleOwner, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Role   Role
	Email  string
}

func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }
