// Package domain holds small shared domain types used across services.
package domain

import (
	"fmt"

	dErrors "certverify/pkg/domain-errors"
)

// Role is the closed set of caller roles. Authorization boundaries switch
// exhaustively over this type instead of comparing raw strings.
type Role string

const (
	RoleUniversity Role = "university"
	RoleStudent    Role = "student"
	RoleEmployer   Role = "employer"
	RoleAdmin      Role = "admin"
)

// ParseRole converts a raw claim value into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUniversity, RoleStudent, RoleEmployer, RoleAdmin:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeUnauthorized, fmt.Sprintf("unknown role %q", s))
	}
}
