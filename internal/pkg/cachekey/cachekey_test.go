package cachekey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHierarchy(t *testing.T) {
	assert.Equal(t, "app", All())
	assert.Equal(t, "app:content", ContentAll())
	assert.Equal(t, "app:content:list", ContentLists())
	assert.Equal(t, "app:content:detail", ContentDetails())
	assert.Equal(t, "app:content:detail:42", ContentDetail("42"))
	assert.Equal(t, "app:users:list", UserLists())
	assert.Equal(t, "app:users:detail:7", UserDetail("7"))
	assert.Equal(t, "app:youtube:dQw4w9WgXcQ", Video("dQw4w9WgXcQ"))

	for _, k := range []string{ContentList(ListFilters{}), ContentDetail("1")} {
		assert.True(t, strings.HasPrefix(k, ContentAll()))
		assert.True(t, strings.HasPrefix(k, All()))
	}
	assert.True(t, strings.HasPrefix(ContentList(ListFilters{Search: "go"}), ContentLists()))
	assert.False(t, strings.HasPrefix(ContentDetail("1"), ContentLists()))
}

func TestContentList(t *testing.T) {
	assert.Equal(t, "app:content:list:default", ContentList(ListFilters{}))

	key := ContentList(ListFilters{SortBy: "NAME", SortOrder: "ASC", Search: "rick roll", First: 20, After: "Y3Vyc29yOjE="})
	assert.Equal(t, "app:content:list:after=Y3Vyc29yOjE%3D&first=20&search=rick+roll&sortBy=NAME&sortOrder=ASC", key)

	minLen := 60
	a := ContentList(ListFilters{MinLength: &minLen})
	b := ContentList(ListFilters{MaxLength: &minLen})
	assert.NotEqual(t, a, b)
}

func TestContentByName(t *testing.T) {
	assert.Equal(t, "app:content:detail:name/Never%20Gonna", ContentByName("Never Gonna"))
}
