package contentful

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
)

// APIKeyName is the name of the API key created to obtain missing read tokens.
const APIKeyName = "contentbuild"

type resolvedTokens struct {
	delivery string
	preview  string
}

// resolveTokens returns read tokens, resolving missing ones through the
// management API once per process.
func (s *Source) resolveTokens(ctx context.Context) (*resolvedTokens, error) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	if s.tokens != nil {
		return s.tokens, nil
	}

	t := &resolvedTokens{delivery: s.opts.DeliveryToken, preview: s.opts.PreviewToken}
	needed := t.delivery == "" || (s.opts.Preview && t.preview == "")
	if needed {
		key, err := s.ensureAPIKey(ctx)
		if err != nil {
			return nil, err
		}
		if t.delivery == "" {
			t.delivery = key.AccessToken
		}
		if t.preview == "" && s.opts.Preview {
			preview, err := s.previewToken(ctx, key)
			if err != nil {
				return nil, err
			}
			t.preview = preview
		}
	}
	s.tokens = t
	return t, nil
}

// ensureAPIKey finds the API key named APIKeyName or creates it.
func (s *Source) ensureAPIKey(ctx context.Context) (*apiKey, error) {
	base := "/spaces/" + s.opts.SpaceID

	var list apiKeyList
	err := s.client.do(ctx, request{
		method:  http.MethodGet,
		baseURL: s.opts.ManagementBaseURL,
		path:    base + "/api_keys",
		query:   url.Values{"limit": {"100"}},
		token:   s.opts.AccessToken,
	}, &list)
	if err != nil {
		return nil, err
	}
	for i := range list.Items {
		if list.Items[i].Name == APIKeyName {
			return &list.Items[i], nil
		}
	}

	body := map[string]any{
		"name":        APIKeyName,
		"description": "Read access for contentbuild",
		"environments": []map[string]any{{
			"sys": map[string]string{"type": "Link", "linkType": "Environment", "id": s.opts.Environment},
		}},
	}
	var created apiKey
	err = s.client.do(ctx, request{
		method:  http.MethodPost,
		baseURL: s.opts.ManagementBaseURL,
		path:    base + "/api_keys",
		token:   s.opts.AccessToken,
		body:    body,
	}, &created)
	if err != nil {
		return nil, err
	}
	slog.Info("Created Contentful API key", slog.String("name", APIKeyName), slog.String("space", s.opts.SpaceID))
	return &created, nil
}

func (s *Source) previewToken(ctx context.Context, key *apiKey) (string, error) {
	if key.PreviewAPIKey == nil || key.PreviewAPIKey.Sys.ID == "" {
		return "", errors.AuthError("API key has no preview key").
			WithContext("api_key", key.Name).
			Build()
	}
	var preview previewAPIKey
	err := s.client.do(ctx, request{
		method:  http.MethodGet,
		baseURL: s.opts.ManagementBaseURL,
		path:    "/spaces/" + s.opts.SpaceID + "/preview_api_keys/" + key.PreviewAPIKey.Sys.ID,
		token:   s.opts.AccessToken,
	}, &preview)
	if err != nil {
		return "", err
	}
	return preview.AccessToken, nil
}
