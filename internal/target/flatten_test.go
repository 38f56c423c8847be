package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentbuild/internal/content"
)

func asset(id, url string) content.Entry {
	return content.New(id, content.AssetModelName, map[string]any{"title": id, "url": url})
}

func TestFlattenAssetURLs(t *testing.T) {
	logo := asset("logo", "https://images.example/logo.png")
	hero := asset("hero", "https://images.example/hero.jpg")
	author := content.New("ann", "Person", map[string]any{"name": "Ann", "avatar": logo})
	page := content.New("home", "PageLayout", map[string]any{
		"slug":    "/",
		"hero":    hero,
		"author":  author,
		"gallery": []any{logo, &hero, "caption"},
		"section": map[string]any{"image": logo},
	})

	out := FlattenAssetURLs([]content.Entry{logo, page, hero, author})
	require.Len(t, out, 2)

	home := out[0]
	assert.Equal(t, "home", home.Metadata.ID)
	assert.Equal(t, "https://images.example/hero.jpg", home.Fields["hero"])
	assert.Equal(t, []any{"https://images.example/logo.png", "https://images.example/hero.jpg", "caption"}, home.Fields["gallery"])
	assert.Equal(t, map[string]any{"image": "https://images.example/logo.png"}, home.Fields["section"])

	nested, ok := home.Fields["author"].(content.Entry)
	require.True(t, ok)
	assert.Equal(t, "https://images.example/logo.png", nested.Fields["avatar"])

	// input untouched
	_, stillAsset := content.AsEntry(page.Fields["hero"])
	assert.True(t, stillAsset)
	assert.Equal(t, logo, author.Fields["avatar"])
}

func TestFlattenAssetURLsFlatMapForm(t *testing.T) {
	page := content.New("p", "PageLayout", map[string]any{
		"image": logoMap(),
	})
	out := FlattenAssetURLs([]content.Entry{page})
	require.Len(t, out, 1)
	assert.Equal(t, "https://images.example/logo.png", out[0].Fields["image"])
}

func TestFlattenAssetURLsEmpty(t *testing.T) {
	assert.Empty(t, FlattenAssetURLs(nil))
}

func logoMap() map[string]any {
	return asset("logo", "https://images.example/logo.png").ToMap()
}
