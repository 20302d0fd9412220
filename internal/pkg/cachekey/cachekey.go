// Package cachekey builds the hierarchical cache keys shared by readers and
// writers:
//
//	app
//	app:content         app:users
//	app:content:list    app:users:list
//	app:content:list:<filters>
//	app:content:detail:<id>
//
// Invalidating a prefix drops every key below it.
package cachekey

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	sep = ":"

	root     = "app"
	content  = "content"
	users    = "users"
	list     = "list"
	detail   = "detail"
	upstream = "youtube"
)

// ListFilters identify one list query. Zero values are omitted from the key
// so a default query and an explicit-default query may differ only when the
// caller sets a field.
type ListFilters struct {
	SortBy      string
	SortOrder   string
	Search      string
	First       int
	After       string
	ContentType string
	MinLength   *int
	MaxLength   *int
	WithTotal   bool
}

func join(parts ...string) string {
	return strings.Join(parts, sep)
}

// All is the root of every key
func All() string { return root }

// ContentAll covers every content key
func ContentAll() string { return join(root, content) }

// ContentLists is the prefix invalidated after content mutations
func ContentLists() string { return join(root, content, list) }

// ContentList is the key of one list query
func ContentList(f ListFilters) string {
	return join(root, content, list, f.canonical())
}

// ContentDetails covers every content detail key
func ContentDetails() string { return join(root, content, detail) }

// ContentDetail is the key of one content item. id may be a numeric id or a
// "name/<name>" selector.
func ContentDetail(id string) string { return join(root, content, detail, id) }

// ContentByName is the detail key used for lookups by name
func ContentByName(name string) string {
	return ContentDetail("name/" + url.PathEscape(name))
}

// UsersAll covers every user key
func UsersAll() string { return join(root, users) }

// UserLists is the prefix invalidated after user mutations
func UserLists() string { return join(root, users, list) }

// UserList is the key of one user list page
func UserList(f ListFilters) string { return join(root, users, list, f.canonical()) }

// UserDetails covers every user detail key
func UserDetails() string { return join(root, users, detail) }

// UserDetail is the key of one user
func UserDetail(id string) string { return join(root, users, detail, id) }

// Video is the key of a cached upstream metadata document
func Video(videoID string) string { return join(root, upstream, videoID) }

func (f ListFilters) canonical() string {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}

	set("sortBy", f.SortBy)
	set("sortOrder", f.SortOrder)
	set("search", f.Search)
	set("after", f.After)
	set("contentType", f.ContentType)
	if f.First > 0 {
		v.Set("first", strconv.Itoa(f.First))
	}
	if f.MinLength != nil {
		v.Set("minLength", strconv.Itoa(*f.MinLength))
	}
	if f.MaxLength != nil {
		v.Set("maxLength", strconv.Itoa(*f.MaxLength))
	}
	if f.WithTotal {
		v.Set("total", "1")
	}

	if len(v) == 0 {
		return "default"
	}
	// Encode sorts by key, which makes the key independent of field order
	return v.Encode()
}
