package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Content and YouTube errors (2000-2999)
	ErrContentNotFound     = 2000
	ErrContentNameConflict = 2001
	ErrInvalidYouTubeURL   = 2002
	ErrYouTubeAPI          = 2003
	ErrVideoNotFound       = 2004
	ErrEmptyURLList        = 2005

	// Perspective errors (3000-3999)
	ErrPerspectiveNotFound     = 3000
	ErrPerspectiveInvalidInput = 3001
	ErrPerspectiveRange        = 3002
	ErrPerspectiveDuplicate    = 3003

	// User errors (4000-4999)
	ErrUserNotFound     = 4000
	ErrUserExists       = 4001
	ErrUserInvalidInput = 4002
	ErrUserProtected    = 4003
)

var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	ErrContentNotFound:     {ErrContentNotFound, http.StatusNotFound, "Content not found"},
	ErrContentNameConflict: {ErrContentNameConflict, http.StatusConflict, "Content already exists"},
	ErrInvalidYouTubeURL:   {ErrInvalidYouTubeURL, http.StatusBadRequest, "Invalid YouTube URL"},
	ErrYouTubeAPI:          {ErrYouTubeAPI, http.StatusBadGateway, "YouTube API error"},
	ErrVideoNotFound:       {ErrVideoNotFound, http.StatusNotFound, "Video not found"},
	ErrEmptyURLList:        {ErrEmptyURLList, http.StatusBadRequest, "At least one video URL is required"},

	ErrPerspectiveNotFound:     {ErrPerspectiveNotFound, http.StatusNotFound, "Perspective not found"},
	ErrPerspectiveInvalidInput: {ErrPerspectiveInvalidInput, http.StatusBadRequest, "Invalid perspective input"},
	ErrPerspectiveRange:        {ErrPerspectiveRange, http.StatusBadRequest, "Rating out of range"},
	ErrPerspectiveDuplicate:    {ErrPerspectiveDuplicate, http.StatusConflict, "Claim already exists for user"},

	ErrUserNotFound:     {ErrUserNotFound, http.StatusNotFound, "User not found"},
	ErrUserExists:       {ErrUserExists, http.StatusConflict, "User already exists"},
	ErrUserInvalidInput: {ErrUserInvalidInput, http.StatusBadRequest, "Invalid user input"},
	ErrUserProtected:    {ErrUserProtected, http.StatusForbidden, "System user cannot be modified"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsClientError reports whether the code maps to a 4xx status
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// FormatError formats an error message with code details
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
