package content

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Known metadata keys.
const (
	keyID                 = "id"
	keySource             = "source"
	keyModelName          = "modelName"
	keyModelType          = "modelType"
	keyProjectID          = "projectId"
	keyProjectEnvironment = "projectEnvironment"
	keyCreatedAt          = "createdAt"
	keyUpdatedAt          = "updatedAt"
	keyLocale             = "locale"
	keyURLPath            = "urlPath"
	keyPageCSSClasses     = "pageCssClasses"
)

// Metadata describes where an entry came from and, for pages, how it is routed.
type Metadata struct {
	ID                 string
	Source             string
	ModelName          string
	ModelType          string
	ProjectID          string
	ProjectEnvironment string
	CreatedAt          string
	UpdatedAt          string
	Locale             string

	// Set on derived pages only.
	URLPath        string
	PageCSSClasses []string

	// Extra holds metadata keys this package does not model.
	Extra map[string]any
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	out := m
	if m.PageCSSClasses != nil {
		out.PageCSSClasses = slices.Clone(m.PageCSSClasses)
	}
	if m.Extra != nil {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = cloneValue(v)
		}
	}
	return out
}

// ToMap returns the metadata as a plain map. Known fields override Extra keys.
// Empty string fields are omitted; PageCSSClasses is kept when non-nil.
func (m Metadata) ToMap() map[string]any {
	out := make(map[string]any, len(m.Extra)+8)
	maps.Copy(out, m.Extra)
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put(keyID, m.ID)
	put(keySource, m.Source)
	out[keyModelName] = m.ModelName
	put(keyModelType, m.ModelType)
	put(keyProjectID, m.ProjectID)
	put(keyProjectEnvironment, m.ProjectEnvironment)
	put(keyCreatedAt, m.CreatedAt)
	put(keyUpdatedAt, m.UpdatedAt)
	put(keyLocale, m.Locale)
	put(keyURLPath, m.URLPath)
	if m.PageCSSClasses != nil {
		out[keyPageCSSClasses] = slices.Clone(m.PageCSSClasses)
	}
	return out
}

// MetadataFromMap builds Metadata from a decoded map (JSON or YAML).
func MetadataFromMap(raw map[string]any) (Metadata, error) {
	var m Metadata
	for k, v := range raw {
		switch k {
		case keyPageCSSClasses:
			classes, err := stringList(v)
			if err != nil {
				return Metadata{}, fmt.Errorf("metadata %s: %w", k, err)
			}
			m.PageCSSClasses = classes
			continue
		case keyID, keySource, keyModelName, keyModelType, keyProjectID,
			keyProjectEnvironment, keyCreatedAt, keyUpdatedAt, keyLocale, keyURLPath:
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[k] = v
			continue
		}
		s, ok := v.(string)
		if !ok && v != nil {
			return Metadata{}, fmt.Errorf("metadata %s: expected string, got %T", k, v)
		}
		switch k {
		case keyID:
			m.ID = s
		case keySource:
			m.Source = s
		case keyModelName:
			m.ModelName = s
		case keyModelType:
			m.ModelType = s
		case keyProjectID:
			m.ProjectID = s
		case keyProjectEnvironment:
			m.ProjectEnvironment = s
		case keyCreatedAt:
			m.CreatedAt = s
		case keyUpdatedAt:
			m.UpdatedAt = s
		case keyLocale:
			m.Locale = s
		case keyURLPath:
			m.URLPath = s
		}
	}
	return m, nil
}

// MarshalJSON encodes the metadata as a flat object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

// UnmarshalJSON decodes a flat metadata object.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := MetadataFromMap(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return slices.Clone(list), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string list item, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}
