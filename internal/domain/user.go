package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role scopes what an authenticated user may do.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleProvider Role = "provider"
	RoleClient   Role = "client"
)

// ParseRole validates a role string from input or storage.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleAdmin, RoleProvider, RoleClient:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// User is a registered account. The cart/order core only needs its
// identity and role; everything else about accounts is plumbing.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
