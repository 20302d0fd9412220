package biz

import "errors"

var (
	// ErrContentNotFound is returned when no item matches the id or name
	ErrContentNotFound = errors.New("content not found")

	// ErrNameConflict is returned by the repository when a different URL
	// already owns the name
	ErrNameConflict = errors.New("content name already exists")

	// ErrEmptyURLList rejects an ingestion request without URLs
	ErrEmptyURLList = errors.New("at least one video URL is required")

	// ErrInvalidListParams covers bad sort fields, page sizes, cursors and length ranges
	ErrInvalidListParams = errors.New("invalid list parameters")
)
