package biz

import (
	"github.com/tidwall/gjson"
)

// VideoStats are the display fields read out of the stored upstream document
type VideoStats struct {
	ViewCount    *int64
	LikeCount    *int64
	CommentCount *int64
	PublishedAt  *string
	ChannelTitle string
	Description  string
	Tags         []string
}

// Stats reads the first item of the stored videos.list document. Missing
// fields stay nil.
func (c *Content) Stats() VideoStats {
	var s VideoStats
	if len(c.Response) == 0 || !gjson.ValidBytes(c.Response) {
		return s
	}

	item := gjson.GetBytes(c.Response, "items.0")
	s.ViewCount = count(item.Get("statistics.viewCount"))
	s.LikeCount = count(item.Get("statistics.likeCount"))
	s.CommentCount = count(item.Get("statistics.commentCount"))
	if p := item.Get("snippet.publishedAt"); p.Exists() && p.String() != "" {
		v := p.String()
		s.PublishedAt = &v
	}
	s.ChannelTitle = item.Get("snippet.channelTitle").String()
	s.Description = item.Get("snippet.description").String()
	for _, t := range item.Get("snippet.tags").Array() {
		s.Tags = append(s.Tags, t.String())
	}
	return s
}

// counts arrive as decimal strings
func count(r gjson.Result) *int64 {
	if !r.Exists() || r.String() == "" {
		return nil
	}
	n := r.Int()
	if n == 0 && r.String() != "0" {
		return nil
	}
	return &n
}
