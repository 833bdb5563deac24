package auth

import "fmt"

// Role is the closed set of account roles. Authorization decisions switch
// exhaustively over it; unknown strings never make it past ParseRole.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin, RoleManager, RoleEmployee:
		return Role(value), nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// CanReview reports whether the role may act on submitted time entries.
func (r Role) CanReview() bool {
	return r == RoleAdmin || r == RoleManager
}

func (r Role) String() string {
	return string(r)
}
