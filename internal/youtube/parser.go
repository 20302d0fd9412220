package youtube

import (
	"net/url"
	"strings"
)

const (
	primaryDomain = "youtube.com"
	shortHost     = "youtu.be"
	privacyDomain = "youtube-nocookie.com"
)

// pathForms lists the first path segments that carry an identifier as the
// following segment on the primary domain
var pathForms = map[string]bool{
	"embed":  true,
	"v":      true,
	"e":      true,
	"shorts": true,
	"live":   true,
}

// ExtractVideoID returns the video identifier in raw and whether one was
// found. It never fails: empty, malformed or unrecognized input simply
// yields ("", false).
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, ok := parse(raw)
	if !ok {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	segments := splitPath(u.Path)

	var id string
	switch {
	case host == shortHost:
		if len(segments) > 0 {
			id = segments[0]
		}
	case onDomain(host, privacyDomain):
		if len(segments) >= 2 && segments[0] == "embed" {
			id = segments[1]
		}
	case onDomain(host, primaryDomain):
		id = fromPrimary(u, segments)
	}

	if id == "" {
		return "", false
	}
	return id, true
}

// WatchURL returns the canonical watch URL for an identifier
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

func fromPrimary(u *url.URL, segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	if segments[0] == "watch" {
		return strings.TrimSpace(u.Query().Get("v"))
	}
	if pathForms[segments[0]] && len(segments) >= 2 {
		return segments[1]
	}
	return ""
}

func parse(raw string) (*url.URL, bool) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if u.Hostname() == "" {
		return nil, false
	}
	return u, true
}

func splitPath(p string) []string {
	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// onDomain matches domain itself and any of its subdomains
func onDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
