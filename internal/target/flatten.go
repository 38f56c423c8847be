package target

import (
	"git.home.luguber.info/inful/contentbuild/internal/content"
)

// assetURLField holds the public URL on asset entries.
const assetURLField = "url"

// FlattenAssetURLs drops top-level asset entries and replaces nested assets
// with their URL string. The input is not modified.
func FlattenAssetURLs(entries []content.Entry) []content.Entry {
	out := make([]content.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsAsset() {
			continue
		}
		out = append(out, flattenEntry(e))
	}
	return out
}

func flattenEntry(e content.Entry) content.Entry {
	out := content.Entry{Metadata: e.Metadata.Clone(), Fields: make(map[string]any, len(e.Fields))}
	for k, v := range e.Fields {
		out.Fields[k] = flattenValue(v)
	}
	return out
}

func flattenValue(v any) any {
	if nested, ok := content.AsEntry(v); ok {
		if nested.IsAsset() {
			url, _ := nested.String(assetURLField)
			return url
		}
		return flattenEntry(nested)
	}
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = flattenValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = flattenValue(item)
		}
		return out
	default:
		return v
	}
}
