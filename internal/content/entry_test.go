package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryJSONShape(t *testing.T) {
	e := Entry{
		Metadata: Metadata{
			ID:        "page-1",
			ModelName: "PageLayout",
			URLPath:   "/about",
			Extra:     map[string]any{"custom": "x"},
		},
		Fields: map[string]any{"slug": "about", "title": "About"},
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "about", raw["slug"])
	meta := raw[MetadataKey].(map[string]any)
	assert.Equal(t, "PageLayout", meta["modelName"])
	assert.Equal(t, "/about", meta["urlPath"])
	assert.Equal(t, "x", meta["custom"])
	assert.NotContains(t, meta, "locale", "empty strings are omitted")
}

func TestEntryUnmarshal(t *testing.T) {
	input := `{"__metadata":{"id":"c1","modelName":"Config","pageCssClasses":["page-a"],"weird":1},"title":"Home"}`

	var e Entry
	require.NoError(t, json.Unmarshal([]byte(input), &e))
	assert.Equal(t, "Config", e.ModelName())
	assert.Equal(t, "c1", e.Metadata.ID)
	assert.Equal(t, []string{"page-a"}, e.Metadata.PageCSSClasses)
	assert.Equal(t, float64(1), e.Metadata.Extra["weird"])
	title, ok := e.String("title")
	assert.True(t, ok)
	assert.Equal(t, "Home", title)
}

func TestFromMapRequiresMetadata(t *testing.T) {
	_, err := FromMap(map[string]any{"slug": "about"})
	require.Error(t, err)

	_, err = FromMap(map[string]any{MetadataKey: "nope"})
	require.Error(t, err)

	_, err = FromMap(map[string]any{MetadataKey: map[string]any{"modelName": 5}})
	require.Error(t, err)
}

func TestFromMapNormalizesYAMLMaps(t *testing.T) {
	e, err := FromMap(map[string]any{
		MetadataKey: map[any]any{"modelName": "PageLayout"},
		"seo":       map[any]any{"title": "x", 1: "one"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PageLayout", e.ModelName())
	seo := e.Fields["seo"].(map[string]any)
	assert.Equal(t, "x", seo["title"])
	assert.Equal(t, "one", seo["1"])
}

func TestCloneIsDeep(t *testing.T) {
	nested := New("a1", AssetModelName, map[string]any{"url": "https://x/img.png"})
	e := Entry{
		Metadata: Metadata{ModelName: "PostLayout", PageCSSClasses: []string{"page-blog"}},
		Fields: map[string]any{
			"tags":  []any{"go"},
			"image": nested,
			"seo":   map[string]any{"title": "t"},
		},
	}
	c := e.Clone()
	c.Metadata.PageCSSClasses[0] = "changed"
	c.Fields["tags"].([]any)[0] = "rust"
	c.Fields["seo"].(map[string]any)["title"] = "changed"
	img := c.Fields["image"].(Entry)
	img.Fields["url"] = "changed"

	assert.Equal(t, "page-blog", e.Metadata.PageCSSClasses[0])
	assert.Equal(t, "go", e.Fields["tags"].([]any)[0])
	assert.Equal(t, "t", e.Fields["seo"].(map[string]any)["title"])
	assert.Equal(t, "https://x/img.png", nested.Fields["url"])
}

func TestAsEntry(t *testing.T) {
	typed := New("1", "Person", nil)
	_, ok := AsEntry(typed)
	assert.True(t, ok)
	_, ok = AsEntry(&typed)
	assert.True(t, ok)
	flat, ok := AsEntry(map[string]any{MetadataKey: map[string]any{"modelName": "__asset"}, "url": "u"})
	assert.True(t, ok)
	assert.True(t, flat.IsAsset())
	_, ok = AsEntry(map[string]any{"url": "u"})
	assert.False(t, ok)
	_, ok = AsEntry("string")
	assert.False(t, ok)
}

func TestHasModel(t *testing.T) {
	e := New("1", "PostLayout", nil)
	assert.True(t, e.HasModel("PageLayout", "PostLayout"))
	assert.False(t, e.HasModel("Config"))
}
