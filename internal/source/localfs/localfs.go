// Package localfs reads content entries from a directory of YAML, JSON and
// Markdown files.
package localfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/contentbuild/internal/content"
	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/frontmatter"
	"git.home.luguber.info/inful/contentbuild/internal/logfields"
)

// Name is the metadata source of entries read by this package.
const Name = "localfs"

// MarkdownField holds the body of Markdown content files.
const MarkdownField = "markdown_content"

// Fields consulted for the model name when no metadata block is present.
var modelFields = []string{"type", "layout"}

// Options configures a Source.
type Options struct {
	Dir string
	// Models maps a top-level directory name to a model name.
	Models   map[string]string
	Debounce time.Duration
}

// Source reads entries from Options.Dir.
type Source struct {
	opts Options

	mu           sync.Mutex
	fingerprints map[string]string // relative path -> content fingerprint
}

// New creates a directory-backed source.
func New(opts Options) *Source {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Source{opts: opts, fingerprints: map[string]string{}}
}

// Name implements source.Source.
func (s *Source) Name() string { return Name }

// Fetch reads every supported file in sorted path order.
func (s *Source) Fetch(ctx context.Context) ([]content.Entry, error) {
	files, err := s.listFiles()
	if err != nil {
		return nil, err
	}

	fingerprints := make(map[string]string, len(files))
	var entries []content.Entry
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(s.opts.Dir, rel))
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read content file").
				WithContext("path", rel).
				Build()
		}
		parsed, fp, err := s.parseFile(rel, data)
		if err != nil {
			return nil, err
		}
		fingerprints[rel] = fp
		entries = append(entries, parsed...)
	}

	s.mu.Lock()
	s.fingerprints = fingerprints
	s.mu.Unlock()

	slog.Debug("Read local content", logfields.Source(Name), logfields.Path(s.opts.Dir), logfields.Entries(len(entries)))
	return entries, nil
}

func (s *Source) listFiles() ([]string, error) {
	info, err := os.Stat(s.opts.Dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "content directory not readable").
			WithContext("dir", s.opts.Dir).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.ConfigError("content path is not a directory").WithContext("dir", s.opts.Dir).Build()
	}

	var files []string
	err = filepath.WalkDir(s.opts.Dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != s.opts.Dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isContentFile(path) {
			return nil
		}
		rel, err := filepath.Rel(s.opts.Dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to walk content directory").
			WithContext("dir", s.opts.Dir).
			Build()
	}
	sort.Strings(files)
	return files, nil
}

// parseFile decodes one file into entries and returns its fingerprint.
func (s *Source) parseFile(rel string, data []byte) ([]content.Entry, string, error) {
	var (
		docs []map[string]any
		fp   string
		err  error
	)
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".md", ".markdown":
		var doc frontmatter.Document
		doc, err = frontmatter.Parse(data)
		if err == nil {
			fp, err = doc.Fingerprint()
			doc.Fields[MarkdownField] = doc.BodyString()
			docs = []map[string]any{doc.Fields}
		}
	case ".json":
		var v any
		if err = json.Unmarshal(data, &v); err == nil {
			docs, err = asDocuments(v)
		}
		fp = frontmatter.FingerprintRaw(data)
	default:
		var v any
		if err = yaml.Unmarshal(data, &v); err == nil {
			docs, err = asDocuments(v)
		}
		fp = frontmatter.FingerprintRaw(data)
	}
	if err != nil {
		return nil, "", errors.WrapError(err, errors.CategoryContent, "failed to parse content file").
			WithContext("path", rel).
			Build()
	}

	entries := make([]content.Entry, 0, len(docs))
	for i, doc := range docs {
		id := strings.TrimSuffix(rel, filepath.Ext(rel))
		if len(docs) > 1 {
			id = fmt.Sprintf("%s#%d", id, i)
		}
		e, err := s.toEntry(rel, id, doc)
		if err != nil {
			return nil, "", err
		}
		entries = append(entries, e)
	}
	return entries, fp, nil
}

func (s *Source) toEntry(rel, defaultID string, doc map[string]any) (content.Entry, error) {
	raw := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		raw[k] = v
	}
	if _, ok := raw[content.MetadataKey]; !ok {
		raw[content.MetadataKey] = map[string]any{}
	}
	e, err := content.FromMap(raw)
	if err != nil {
		return content.Entry{}, errors.WrapError(err, errors.CategoryContent, "invalid entry metadata").
			WithContext("path", rel).
			Build()
	}

	if e.Metadata.ID == "" {
		e.Metadata.ID = defaultID
	}
	if e.Metadata.Source == "" {
		e.Metadata.Source = Name
	}
	if e.Metadata.ModelName == "" {
		e.Metadata.ModelName = s.modelFor(rel, e)
	}
	if e.Metadata.ModelName == "" {
		return content.Entry{}, errors.ContentError("cannot determine entry model").
			WithContext("path", rel).
			WithContext("hint", "set __metadata.modelName, a type/layout field, or a models mapping").
			Build()
	}
	return e, nil
}

func (s *Source) modelFor(rel string, e content.Entry) string {
	for _, field := range modelFields {
		if v, ok := e.String(field); ok && v != "" {
			return v
		}
	}
	if first, _, found := strings.Cut(rel, "/"); found {
		return s.opts.Models[first]
	}
	return ""
}

// asDocuments accepts one object or a list of objects.
func asDocuments(v any) ([]map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}, nil
	case []any:
		out := make([]map[string]any, 0, len(t))
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d is %T, want an object", i, item)
			}
			out = append(out, m)
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("top-level value is %T, want an object or list", v)
	}
}

func isContentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".md", ".markdown":
		return true
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// fingerprintFor returns the fingerprint recorded by the last Fetch.
func (s *Source) fingerprintFor(rel string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, ok := s.fingerprints[rel]
	return fp, ok
}
