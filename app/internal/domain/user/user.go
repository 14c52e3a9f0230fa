package user

import (
	"strings"
	"time"
)

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Address      string
	PasswordHash string
	RoleCode     RoleCode
	CreatedAt    time.Time
}

func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type ListUsersFilter struct {
	RoleCode *RoleCode
}
