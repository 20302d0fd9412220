package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `{
  "kind": "youtube#videoListResponse",
  "items": [{
    "id": "dQw4w9WgXcQ",
    "snippet": {
      "title": "Never Gonna Give You Up",
      "channelTitle": "Rick Astley",
      "publishedAt": "2009-10-25T06:57:33Z",
      "tags": ["rick", "astley"]
    },
    "contentDetails": {"duration": "PT3M33S"},
    "statistics": {"viewCount": "1500000000", "likeCount": "16000000"}
  }]
}`

func TestDecodeVideoList(t *testing.T) {
	v, err := DecodeVideoList([]byte(sampleBody))
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", v.ID)
	assert.Equal(t, "Never Gonna Give You Up", v.Snippet.Title)
	assert.Equal(t, "PT3M33S", v.ContentDetails.Duration)
	assert.Equal(t, "1500000000", v.Statistics.ViewCount)
}

func TestDecodeVideoList_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "not json", body: "<html>", wantErr: ErrMalformedResponse},
		{name: "empty body", body: "", wantErr: ErrMalformedResponse},
		{name: "no items", body: `{"items": []}`, wantErr: ErrVideoNotFound},
		{name: "items missing", body: `{"kind": "youtube#videoListResponse"}`, wantErr: ErrVideoNotFound},
		{name: "no snippet", body: `{"items": [{"id": "x", "contentDetails": {"duration": "PT1S"}}]}`, wantErr: ErrVideoNotFound},
		{name: "empty title", body: `{"items": [{"id": "x", "snippet": {"title": ""}, "contentDetails": {"duration": "PT1S"}}]}`, wantErr: ErrVideoNotFound},
		{name: "no duration", body: `{"items": [{"id": "x", "snippet": {"title": "t"}}]}`, wantErr: ErrVideoNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeVideoList([]byte(tt.body))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: 403, Message: "quotaExceeded"}
	assert.Equal(t, "youtube api returned status 403: quotaExceeded", err.Error())
	assert.False(t, err.Retryable())

	assert.Equal(t, "youtube api returned status 500", (&APIError{StatusCode: 500}).Error())
	assert.True(t, (&APIError{StatusCode: 503}).Retryable())
	assert.True(t, (&APIError{StatusCode: 429}).Retryable())
}
