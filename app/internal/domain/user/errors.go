package user

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailAlreadyUsed    = errors.New("email already used")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrCannotChangeOwnRole = errors.New("cannot change own role")
)
