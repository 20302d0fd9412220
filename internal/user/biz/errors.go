package biz

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidUser  = errors.New("invalid user input")
	ErrSentinelUser = errors.New("system user cannot be modified or deleted")
)
