package user

import (
	"errors"
	"strings"
)

// RoleCode is the permission level carried in the access token.
type RoleCode string

const (
	RoleCodeAdmin    RoleCode = "ADMIN"
	RoleCodeCustomer RoleCode = "CUSTOMER"
)

func (c RoleCode) IsValid() bool {
	return c == RoleCodeAdmin || c == RoleCodeCustomer
}

func (c RoleCode) IsAdmin() bool {
	return c == RoleCodeAdmin
}

var ErrInvalidRoleCode = errors.New("invalid role code")

// ParseRoleCode converts request or token input into a RoleCode.
func ParseRoleCode(s string) (RoleCode, error) {
	c := RoleCode(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrInvalidRoleCode
	}
	return c, nil
}
