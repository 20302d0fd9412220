package database

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	cursorPrefix = "cursor:"
)

// ErrInvalidCursor is returned for cursors not produced by EncodeCursor
var ErrInvalidCursor = errors.New("invalid cursor")

// ErrInvalidPageSize is returned for page sizes outside 1..MaxPageSize
var ErrInvalidPageSize = errors.New("page size must be between 1 and 100")

// EncodeCursor returns the opaque cursor for a row id
func EncodeCursor(id int64) string {
	return base64.StdEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(id, 10)))
}

// DecodeCursor parses a cursor back into the row id it points after
func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, ErrInvalidCursor
	}

	s := string(raw)
	if !strings.HasPrefix(s, cursorPrefix) {
		return 0, ErrInvalidCursor
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(s, cursorPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidCursor
	}
	return id, nil
}

// PageSize resolves a requested page size. Nil means the default.
func PageSize(first *int) (int, error) {
	if first == nil {
		return DefaultPageSize, nil
	}
	if *first < 1 || *first > MaxPageSize {
		return 0, ErrInvalidPageSize
	}
	return *first, nil
}
