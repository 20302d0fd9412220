package format

import "strings"

const (
	VideoDuplicateMessage = "This video has already been added"
	VideoInvalidMessage   = "Invalid YouTube URL or video not found"
	VideoGenericMessage   = "Failed to add video. Please try again."

	UserDuplicateMessage = "A user with that username already exists"
	UserGenericMessage   = "Failed to create user. Please try again."
)

// VideoFailureMessage picks the message shown after adding a video failed
func VideoFailureMessage(errText string) string {
	msg := strings.ToLower(errText)
	switch {
	case strings.Contains(msg, "already exists"):
		return VideoDuplicateMessage
	case strings.Contains(msg, "invalid youtube url"),
		strings.Contains(msg, "video not found"),
		strings.Contains(msg, "identifier extraction failed"):
		return VideoInvalidMessage
	default:
		return VideoGenericMessage
	}
}

// UserFailureMessage picks the message shown after creating a user failed
func UserFailureMessage(errText string) string {
	if strings.Contains(strings.ToLower(errText), "already exists") {
		return UserDuplicateMessage
	}
	return UserGenericMessage
}
