package content

import (
	"encoding/json"
	"fmt"
	"slices"
)

// MetadataKey is the field name that carries Metadata in the flat JSON form.
const MetadataKey = "__metadata"

// AssetModelName is the model name sources give to media assets.
const AssetModelName = "__asset"

// Entry is one unit of content tagged with a model name.
type Entry struct {
	Metadata Metadata
	Fields   map[string]any
}

// New creates an entry for the given model and fields.
func New(id, modelName string, fields map[string]any) Entry {
	if fields == nil {
		fields = map[string]any{}
	}
	return Entry{Metadata: Metadata{ID: id, ModelName: modelName}, Fields: fields}
}

// ModelName returns the entry's schema tag.
func (e Entry) ModelName() string { return e.Metadata.ModelName }

// IsAsset reports whether the entry is a media asset.
func (e Entry) IsAsset() bool { return e.Metadata.ModelName == AssetModelName }

// HasModel reports whether the entry's model name is one of names.
func (e Entry) HasModel(names ...string) bool {
	return slices.Contains(names, e.Metadata.ModelName)
}

// Field returns a model-specific field.
func (e Entry) Field(name string) (any, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// String returns a string field; ok is false when missing or not a string.
func (e Entry) String(name string) (string, bool) {
	v, ok := e.Fields[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := Entry{Metadata: e.Metadata.Clone()}
	if e.Fields != nil {
		out.Fields = make(map[string]any, len(e.Fields))
		for k, v := range e.Fields {
			out.Fields[k] = cloneValue(v)
		}
	}
	return out
}

// ToMap returns the flat form: fields plus MetadataKey.
func (e Entry) ToMap() map[string]any {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		if k == MetadataKey {
			continue
		}
		out[k] = v
	}
	out[MetadataKey] = e.Metadata.ToMap()
	return out
}

// FromMap builds an Entry from its flat form. A missing metadata block is an error.
func FromMap(raw map[string]any) (Entry, error) {
	metaRaw, ok := raw[MetadataKey]
	if !ok {
		return Entry{}, fmt.Errorf("entry has no %s field", MetadataKey)
	}
	metaMap, ok := asStringMap(metaRaw)
	if !ok {
		return Entry{}, fmt.Errorf("%s must be an object, got %T", MetadataKey, metaRaw)
	}
	meta, err := MetadataFromMap(metaMap)
	if err != nil {
		return Entry{}, err
	}
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == MetadataKey {
			continue
		}
		fields[k] = normalizeValue(v)
	}
	return Entry{Metadata: meta, Fields: fields}, nil
}

// MarshalJSON encodes the flat form.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

// UnmarshalJSON decodes the flat form.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// AsEntry reports whether v is a nested entry (typed, pointer, or flat map form)
// and returns it.
func AsEntry(v any) (Entry, bool) {
	switch t := v.(type) {
	case Entry:
		return t, true
	case *Entry:
		if t == nil {
			return Entry{}, false
		}
		return *t, true
	case map[string]any:
		if _, ok := t[MetadataKey]; !ok {
			return Entry{}, false
		}
		e, err := FromMap(t)
		if err != nil {
			return Entry{}, false
		}
		return e, true
	}
	return Entry{}, false
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Entry:
		return t.Clone()
	case *Entry:
		if t == nil {
			return t
		}
		c := t.Clone()
		return &c
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}

// normalizeValue converts YAML-style map[any]any into map[string]any recursively.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func asStringMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		m, ok := normalizeValue(t).(map[string]any)
		return m, ok
	}
	return nil, false
}
