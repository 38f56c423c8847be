// Package target writes and reads the build cache consumed by the static site
// build: all content objects, the derived pages and the common props.
package target

import (
	"strings"

	"git.home.luguber.info/inful/contentbuild/internal/content"
	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/pages"
)

// ErrPageNotFound is returned when no page has the requested url path.
var ErrPageNotFound = errors.NotFoundError("page not found").Build()

// Cache is the persisted result of one refresh cycle.
type Cache struct {
	Objects []content.Entry   `json:"objects"`
	Pages   []content.Entry   `json:"pages"`
	Props   pages.CommonProps `json:"props"`
}

// NewCache assembles a cache from the cycle's objects and derivation result.
func NewCache(objects []content.Entry, result pages.Result) *Cache {
	c := &Cache{Objects: objects, Pages: result.Pages, Props: result.Props}
	if c.Objects == nil {
		c.Objects = []content.Entry{}
	}
	if c.Pages == nil {
		c.Pages = []content.Entry{}
	}
	return c
}

// StaticPaths returns the url paths of all pages in page order.
func (c *Cache) StaticPaths() []string {
	paths := make([]string, 0, len(c.Pages))
	for _, p := range c.Pages {
		paths = append(paths, p.Metadata.URLPath)
	}
	return paths
}

// Page returns the page routed at urlPath. Missing leading and trailing
// slashes are tolerated.
func (c *Cache) Page(urlPath string) (content.Entry, error) {
	want := lookupPath(urlPath)
	for _, p := range c.Pages {
		if lookupPath(p.Metadata.URLPath) == want {
			return p, nil
		}
	}
	return content.Entry{}, errors.NotFoundError(ErrPageNotFound.Message()).
		WithContext("url_path", want).
		Build()
}

// PropsForPath returns the props for one page: the page itself under "page"
// merged with the common props.
func (c *Cache) PropsForPath(urlPath string) (map[string]any, error) {
	page, err := c.Page(urlPath)
	if err != nil {
		return nil, err
	}
	props := map[string]any{"page": page}
	if c.Props.Site != nil {
		props["site"] = *c.Props.Site
	}
	return props, nil
}

func lookupPath(p string) string {
	p = strings.TrimSpace(p)
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	if p == "" {
		return "/"
	}
	return pages.NormalizeURLPath(p)
}
