// Package contentful fetches entries and assets from the Contentful Delivery
// or Preview API and normalizes them into content entries.
package contentful

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"git.home.luguber.info/inful/contentbuild/internal/content"
	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/logfields"
	"git.home.luguber.info/inful/contentbuild/internal/metrics"
	"git.home.luguber.info/inful/contentbuild/internal/retry"
)

// Name is the metadata source of entries produced by this package.
const Name = "contentful"

// Default API hosts.
const (
	DefaultDeliveryBaseURL   = "https://cdn.contentful.com"
	DefaultPreviewBaseURL    = "https://preview.contentful.com"
	DefaultManagementBaseURL = "https://api.contentful.com"
)

// MaxPageSize is the largest page the Delivery API serves.
const MaxPageSize = 1000

// Options configures a Source.
type Options struct {
	AccessToken   string // management token, used to resolve missing delivery/preview tokens
	DeliveryToken string
	PreviewToken  string
	SpaceID       string
	Environment   string
	// Preview reads draft content from the Preview API.
	Preview bool

	DeliveryBaseURL   string
	PreviewBaseURL    string
	ManagementBaseURL string

	PageSize          int
	RequestsPerSecond float64
	Retry             retry.Policy
	PollInterval      time.Duration

	HTTPClient *http.Client
	Recorder   metrics.Recorder
}

// Source reads all entries and assets of one space environment.
type Source struct {
	opts   Options
	client *client

	tokenMu sync.Mutex
	tokens  *resolvedTokens
}

// New validates opts, applies defaults and creates a Source.
func New(opts Options) (*Source, error) {
	if opts.SpaceID == "" {
		return nil, errors.ConfigError("contentful space id is required").Build()
	}
	if opts.AccessToken == "" {
		return nil, errors.ConfigError("contentful access token is required").Build()
	}
	if opts.Environment == "" {
		opts.Environment = "master"
	}
	if opts.DeliveryBaseURL == "" {
		opts.DeliveryBaseURL = DefaultDeliveryBaseURL
	}
	if opts.PreviewBaseURL == "" {
		opts.PreviewBaseURL = DefaultPreviewBaseURL
	}
	if opts.ManagementBaseURL == "" {
		opts.ManagementBaseURL = DefaultManagementBaseURL
	}
	if opts.PageSize <= 0 || opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}
	if opts.Retry.Initial <= 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	opts.Recorder = metrics.OrNoop(opts.Recorder)

	return &Source{
		opts: opts,
		client: &client{
			http:     opts.HTTPClient,
			limiter:  NewRateLimiter(opts.RequestsPerSecond),
			policy:   opts.Retry,
			recorder: opts.Recorder,
		},
	}, nil
}

// Name implements source.Source.
func (s *Source) Name() string { return Name }

// Fetch returns all entries followed by all assets, with links resolved.
func (s *Source) Fetch(ctx context.Context) ([]content.Entry, error) {
	baseURL, token, err := s.readAccess(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.fetchAll(ctx, baseURL, token, "entries")
	if err != nil {
		return nil, err
	}
	assets, err := s.fetchAll(ctx, baseURL, token, "assets")
	if err != nil {
		return nil, err
	}

	out := newNormalizer(s.opts.SpaceID, s.opts.Environment, entries, assets).normalizeAll(entries, assets)
	slog.Debug("Fetched Contentful content",
		logfields.Source(Name),
		slog.Int("raw_entries", len(entries)),
		slog.Int("assets", len(assets)),
		slog.Bool("preview", s.opts.Preview))
	return out, nil
}

// readAccess returns the API base URL and token for reading content.
func (s *Source) readAccess(ctx context.Context) (string, string, error) {
	tokens, err := s.resolveTokens(ctx)
	if err != nil {
		return "", "", err
	}
	if s.opts.Preview {
		return s.opts.PreviewBaseURL, tokens.preview, nil
	}
	return s.opts.DeliveryBaseURL, tokens.delivery, nil
}

func (s *Source) environmentPath(suffix string) string {
	return "/spaces/" + s.opts.SpaceID + "/environments/" + s.opts.Environment + "/" + suffix
}

// fetchAll pages through a collection endpoint.
func (s *Source) fetchAll(ctx context.Context, baseURL, token, kind string) ([]item, error) {
	var items []item
	for skip := 0; ; {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(s.opts.PageSize))
		q.Set("skip", strconv.Itoa(skip))
		q.Set("order", "sys.createdAt")
		if kind == "entries" {
			q.Set("include", "0")
		}

		var page collection
		err := s.client.do(ctx, request{
			method:  http.MethodGet,
			baseURL: baseURL,
			path:    s.environmentPath(kind),
			query:   q,
			token:   token,
		}, &page)
		if err != nil {
			return nil, err
		}

		items = append(items, page.Items...)
		skip += len(page.Items)
		if len(page.Items) == 0 || skip >= page.Total {
			return items, nil
		}
	}
}
