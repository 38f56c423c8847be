package contentful

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentbuild/internal/content"
)

const entriesJSON = `[
  {"sys": {"id": "cfg", "type": "Entry", "contentType": {"sys": {"id": "Config"}}, "locale": "en-US"},
   "fields": {"title": "Site", "logo": {"sys": {"type": "Link", "linkType": "Asset", "id": "logo"}}}},
  {"sys": {"id": "home", "type": "Entry", "contentType": {"sys": {"id": "PageLayout"}}},
   "fields": {"slug": "/", "sections": [
      {"sys": {"type": "Link", "linkType": "Entry", "id": "hero"}},
      {"sys": {"type": "Link", "linkType": "Entry", "id": "missing"}}
   ], "author": {"sys": {"type": "Link", "linkType": "Entry", "id": "gone"}}}},
  {"sys": {"id": "hero", "type": "Entry", "contentType": {"sys": {"id": "HeroSection"}}},
   "fields": {"title": "Hi", "page": {"sys": {"type": "Link", "linkType": "Entry", "id": "home"}}}}
]`

const assetsJSON = `[
  {"sys": {"id": "logo", "type": "Asset"},
   "fields": {"title": "Logo", "file": {"url": "//images.ctfassets.net/logo.png", "fileName": "logo.png",
     "contentType": "image/png", "details": {"image": {"width": 100, "height": 50}}}}}
]`

func decodeItems(t *testing.T, raw string) []item {
	t.Helper()
	var items []item
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	return items
}

func TestNormalizeResolvesLinks(t *testing.T) {
	entries := decodeItems(t, entriesJSON)
	assets := decodeItems(t, assetsJSON)

	out := newNormalizer("space1", "master", entries, assets).normalizeAll(entries, assets)
	require.Len(t, out, 4)

	cfg := out[0]
	assert.Equal(t, "Config", cfg.ModelName())
	assert.Equal(t, "space1", cfg.Metadata.ProjectID)
	assert.Equal(t, "master", cfg.Metadata.ProjectEnvironment)
	assert.Equal(t, "en-US", cfg.Metadata.Locale)
	assert.Equal(t, Name, cfg.Metadata.Source)

	logo, ok := content.AsEntry(cfg.Fields["logo"])
	require.True(t, ok)
	assert.True(t, logo.IsAsset())
	url, _ := logo.String("url")
	assert.Equal(t, "https://images.ctfassets.net/logo.png", url)
	assert.Equal(t, float64(100), logo.Fields["width"])

	home := out[1]
	sections, ok := home.Fields["sections"].([]any)
	require.True(t, ok)
	require.Len(t, sections, 1, "unresolvable links are dropped from lists")
	assert.Nil(t, home.Fields["author"], "unresolvable single links become nil")

	hero, ok := content.AsEntry(sections[0])
	require.True(t, ok)
	assert.Equal(t, "HeroSection", hero.ModelName())

	// hero links back to home, an ancestor: it stays a stub.
	stub, ok := content.AsEntry(hero.Fields["page"])
	require.True(t, ok)
	assert.Equal(t, "home", stub.Metadata.ID)
	assert.Equal(t, "PageLayout", stub.ModelName())
	assert.Empty(t, stub.Fields)

	// Resolved at top level, hero's link to home is fully expanded.
	topHero := out[2]
	expanded, ok := content.AsEntry(topHero.Fields["page"])
	require.True(t, ok)
	assert.Equal(t, "/", expanded.Fields["slug"])

	asset := out[3]
	assert.Equal(t, content.AssetModelName, asset.ModelName())
	assert.Equal(t, "logo.png", asset.Fields["fileName"])
}

func TestNormalizedEntriesMarshalFlat(t *testing.T) {
	entries := decodeItems(t, entriesJSON)
	out := newNormalizer("s", "master", entries, nil).normalizeAll(entries[:1], nil)

	data, err := json.Marshal(out[0])
	require.NoError(t, err)
	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	meta, ok := flat[content.MetadataKey].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Config", meta["modelName"])
	assert.Equal(t, "Site", flat["title"])
	assert.Nil(t, flat["logo"])
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "https://a/b.png", absoluteURL("//a/b.png"))
	assert.Equal(t, "http://a/b.png", absoluteURL("http://a/b.png"))
}
