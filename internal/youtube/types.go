package youtube

import (
	"encoding/json"
	"fmt"
)

// VideoListResponse is the subset of the videos.list document the catalogue uses
type VideoListResponse struct {
	Kind  string     `json:"kind"`
	Items []Video    `json:"items"`
	Error *errorBody `json:"error,omitempty"`
}

// Video is one item of a videos.list response
type Video struct {
	ID             string          `json:"id"`
	Snippet        *Snippet        `json:"snippet,omitempty"`
	ContentDetails *ContentDetails `json:"contentDetails,omitempty"`
	Statistics     *Statistics     `json:"statistics,omitempty"`
}

type Snippet struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ChannelTitle string   `json:"channelTitle"`
	PublishedAt  string   `json:"publishedAt"`
}

type ContentDetails struct {
	Duration string `json:"duration"`
}

// Statistics are reported as decimal strings by the API
type Statistics struct {
	ViewCount    string `json:"viewCount,omitempty"`
	LikeCount    string `json:"likeCount,omitempty"`
	CommentCount string `json:"commentCount,omitempty"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// DecodeVideoList parses and validates a videos.list body, returning the first item
func DecodeVideoList(body []byte) (*Video, error) {
	var resp VideoListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp.Validate()
}

// Validate checks the fields ingestion depends on and returns the first item
func (r *VideoListResponse) Validate() (*Video, error) {
	if len(r.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	v := &r.Items[0]
	if v.Snippet == nil || v.Snippet.Title == "" {
		return nil, fmt.Errorf("%w: missing snippet.title", ErrVideoNotFound)
	}
	if v.ContentDetails == nil || v.ContentDetails.Duration == "" {
		return nil, fmt.Errorf("%w: missing contentDetails.duration", ErrVideoNotFound)
	}
	return v, nil
}
