package biz

import "errors"

var (
	ErrPerspectiveNotFound = errors.New("perspective not found")
	ErrInvalidInput        = errors.New("invalid perspective input")
	ErrInvalidRating       = errors.New("rating must be between 0 and 10000")
	ErrDuplicateClaim      = errors.New("claim already exists for this user")
)
