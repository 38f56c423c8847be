package contentful

import (
	"strings"

	"git.home.luguber.info/inful/contentbuild/internal/content"
)

const (
	sysTypeLink  = "Link"
	linkAsset    = "Asset"
	modelTypeObj = "object"
	modelTypeAst = "asset"
)

// normalizer turns raw entries and assets into content entries with links resolved.
type normalizer struct {
	spaceID     string
	environment string
	entries     map[string]item
	assets      map[string]item
}

func newNormalizer(spaceID, environment string, entries, assets []item) *normalizer {
	n := &normalizer{
		spaceID:     spaceID,
		environment: environment,
		entries:     make(map[string]item, len(entries)),
		assets:      make(map[string]item, len(assets)),
	}
	for _, e := range entries {
		n.entries[e.Sys.ID] = e
	}
	for _, a := range assets {
		n.assets[a.Sys.ID] = a
	}
	return n
}

// normalizeAll returns entries first, then assets, each in API order.
func (n *normalizer) normalizeAll(entries, assets []item) []content.Entry {
	out := make([]content.Entry, 0, len(entries)+len(assets))
	for _, e := range entries {
		out = append(out, n.entry(e, map[string]bool{}))
	}
	for _, a := range assets {
		out = append(out, n.asset(a))
	}
	return out
}

func (n *normalizer) metadata(it item, model, modelType string) content.Metadata {
	return content.Metadata{
		ID:                 it.Sys.ID,
		Source:             Name,
		ModelName:          model,
		ModelType:          modelType,
		ProjectID:          n.spaceID,
		ProjectEnvironment: n.environment,
		CreatedAt:          it.Sys.CreatedAt,
		UpdatedAt:          it.Sys.UpdatedAt,
		Locale:             it.Sys.Locale,
	}
}

func (n *normalizer) entry(it item, ancestors map[string]bool) content.Entry {
	model := ""
	if it.Sys.ContentType != nil {
		model = it.Sys.ContentType.Sys.ID
	}
	e := content.Entry{Metadata: n.metadata(it, model, modelTypeObj), Fields: map[string]any{}}

	ancestors[it.Sys.ID] = true
	for k, v := range it.Fields {
		resolved, _ := n.resolve(v, ancestors)
		e.Fields[k] = resolved
	}
	delete(ancestors, it.Sys.ID)
	return e
}

func (n *normalizer) asset(it item) content.Entry {
	fields := map[string]any{}
	for _, k := range []string{"title", "description"} {
		if v, ok := it.Fields[k]; ok {
			fields[k] = v
		}
	}
	if file, ok := it.Fields["file"].(map[string]any); ok {
		if u, ok := file["url"].(string); ok {
			fields["url"] = absoluteURL(u)
		}
		if v, ok := file["contentType"]; ok {
			fields["contentType"] = v
		}
		if v, ok := file["fileName"]; ok {
			fields["fileName"] = v
		}
		if details, ok := file["details"].(map[string]any); ok {
			if img, ok := details["image"].(map[string]any); ok {
				fields["width"] = img["width"]
				fields["height"] = img["height"]
			}
		}
	}
	return content.Entry{Metadata: n.metadata(it, content.AssetModelName, modelTypeAst), Fields: fields}
}

// resolve replaces links inside v. keep is false for unresolvable links.
func (n *normalizer) resolve(v any, ancestors map[string]bool) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		if id, linkType, ok := asLink(t); ok {
			return n.resolveLink(id, linkType, ancestors)
		}
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k], _ = n.resolve(item, ancestors)
		}
		return out, true
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			if resolved, keep := n.resolve(item, ancestors); keep {
				out = append(out, resolved)
			}
		}
		return out, true
	default:
		return v, true
	}
}

func (n *normalizer) resolveLink(id, linkType string, ancestors map[string]bool) (any, bool) {
	if linkType == linkAsset {
		a, ok := n.assets[id]
		if !ok {
			return nil, false
		}
		return n.asset(a), true
	}

	e, ok := n.entries[id]
	if !ok {
		return nil, false
	}
	if ancestors[id] {
		model := ""
		if e.Sys.ContentType != nil {
			model = e.Sys.ContentType.Sys.ID
		}
		return content.Entry{Metadata: content.Metadata{ID: id, ModelName: model}, Fields: map[string]any{}}, true
	}
	return n.entry(e, ancestors), true
}

func asLink(m map[string]any) (id, linkType string, ok bool) {
	s, isMap := m["sys"].(map[string]any)
	if !isMap || s["type"] != sysTypeLink {
		return "", "", false
	}
	id, _ = s["id"].(string)
	linkType, _ = s["linkType"].(string)
	return id, linkType, id != ""
}

// absoluteURL turns protocol-relative asset URLs into https URLs.
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
