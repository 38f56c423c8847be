package pages

import (
	"encoding/json"

	"git.home.luguber.info/inful/contentbuild/internal/content"
	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
)

// Model names with special meaning.
const (
	ModelPageLayout             = "PageLayout"
	ModelPostLayout             = "PostLayout"
	ModelPostFeedLayout         = "PostFeedLayout"
	ModelPostFeedCategoryLayout = "PostFeedCategoryLayout"
	ModelConfig                 = "Config"
)

// SlugField is the entry field that routes a page.
const SlugField = "slug"

// DefaultPageModels is the allow-list of models that become pages.
var DefaultPageModels = []string{
	ModelPageLayout,
	ModelPostLayout,
	ModelPostFeedLayout,
	ModelPostFeedCategoryLayout,
}

// ErrMissingSlug is returned when a page-eligible entry has no string slug.
var ErrMissingSlug = errors.ValidationError("page entry has no slug").Build()

// CommonProps is merged into every page's props.
type CommonProps struct {
	Site *content.Entry
}

// MarshalJSON encodes {"site": ...}, omitting site when absent.
func (p CommonProps) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if p.Site != nil {
		out["site"] = *p.Site
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes {"site": ...}.
func (p *CommonProps) UnmarshalJSON(data []byte) error {
	var raw struct {
		Site *content.Entry `json:"site"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Site = raw.Site
	return nil
}

// Result bundles both derivations of one cycle.
type Result struct {
	Pages []content.Entry
	Props CommonProps
}

// Deriver turns content entries into pages and common props.
type Deriver struct {
	pageModels  map[string]struct{}
	configModel string
}

// Option customizes a Deriver.
type Option func(*Deriver)

// WithPageModels replaces the allow-list of page models.
func WithPageModels(models ...string) Option {
	return func(d *Deriver) {
		d.pageModels = make(map[string]struct{}, len(models))
		for _, m := range models {
			d.pageModels[m] = struct{}{}
		}
	}
}

// WithConfigModel changes the model name used for the site config lookup.
func WithConfigModel(model string) Option {
	return func(d *Deriver) {
		if model != "" {
			d.configModel = model
		}
	}
}

// New creates a Deriver. Without options it uses DefaultPageModels and "Config".
func New(opts ...Option) *Deriver {
	d := &Deriver{configModel: ModelConfig}
	WithPageModels(DefaultPageModels...)(d)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Default returns a Deriver with the fixed allow-list.
func Default() *Deriver { return New() }

// IsPageModel reports whether model is in the allow-list.
func (d *Deriver) IsPageModel(model string) bool {
	_, ok := d.pageModels[model]
	return ok
}

// CommonProps finds the first config entry. Site is nil when there is none.
func (d *Deriver) CommonProps(entries []content.Entry) CommonProps {
	for i := range entries {
		if entries[i].Metadata.ModelName == d.configModel {
			site := entries[i]
			return CommonProps{Site: &site}
		}
	}
	return CommonProps{}
}

// Pages filters entries to page models and adds urlPath and pageCssClasses
// to each one's metadata.
func (d *Deriver) Pages(entries []content.Entry) ([]content.Entry, error) {
	pages := make([]content.Entry, 0, len(entries))
	for _, entry := range entries {
		if !d.IsPageModel(entry.Metadata.ModelName) {
			continue
		}
		page, err := derivePage(entry)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Derive computes pages and common props together.
func (d *Deriver) Derive(entries []content.Entry) (Result, error) {
	pages, err := d.Pages(entries)
	if err != nil {
		return Result{}, err
	}
	return Result{Pages: pages, Props: d.CommonProps(entries)}, nil
}

func derivePage(entry content.Entry) (content.Entry, error) {
	slug, ok := entry.String(SlugField)
	if !ok {
		return content.Entry{}, ErrMissingSlug.
			WithContext("entry_id", entry.Metadata.ID).
			WithContext("model", entry.Metadata.ModelName)
	}

	urlPath := NormalizeURLPath(slug)

	meta := entry.Metadata.Clone()
	meta.URLPath = urlPath
	meta.PageCSSClasses = CSSClassesFromURLPath(urlPath)

	fields := make(map[string]any, len(entry.Fields))
	for k, v := range entry.Fields {
		fields[k] = v
	}
	return content.Entry{Metadata: meta, Fields: fields}, nil
}

// DerivePages uses the default Deriver.
func DerivePages(entries []content.Entry) ([]content.Entry, error) {
	return Default().Pages(entries)
}

// DeriveCommonProps uses the default Deriver.
func DeriveCommonProps(entries []content.Entry) CommonProps {
	return Default().CommonProps(entries)
}
