package contentful

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/logfields"
	"git.home.luguber.info/inful/contentbuild/internal/metrics"
	"git.home.luguber.info/inful/contentbuild/internal/retry"
)

const (
	headerRateLimitReset = "X-Contentful-RateLimit-Reset"
	userAgent            = "contentbuild/1.0"
	maxErrorBody         = 4 << 10
)

// apiError is the cause of classified errors built from HTTP responses.
type apiError struct {
	Status     int
	Message    string
	retryAfter time.Duration
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("contentful: HTTP %d", e.Status)
	}
	return fmt.Sprintf("contentful: HTTP %d: %s", e.Status, e.Message)
}

// RetryAfter implements retry.WaitHint.
func (e *apiError) RetryAfter() time.Duration { return e.retryAfter }

// client performs rate-limited, retried JSON requests.
type client struct {
	http     *http.Client
	limiter  *RateLimiter
	policy   retry.Policy
	recorder metrics.Recorder
}

type request struct {
	method  string
	baseURL string
	path    string
	query   url.Values
	token   string
	body    any
}

func (r request) url() (string, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}
	return u.String(), nil
}

// do sends req, retrying transient failures, and decodes the JSON response into out.
func (c *client) do(ctx context.Context, req request, out any) error {
	return c.policy.Do(ctx, func(ctx context.Context) error {
		return c.once(ctx, req, out)
	}, func(attempt int, err error, wait time.Duration) {
		c.recorder.IncSourceRetry(Name)
		slog.Warn("Retrying Contentful request",
			slog.String("path", req.path),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			logfields.Error(err))
	})
}

func (c *client) once(ctx context.Context, req request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	target, err := req.url()
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid Contentful URL").
			WithContext("base_url", req.baseURL).
			Build()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to encode request body").Build()
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to build request").Build()
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.token)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/vnd.contentful.management.v1+json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.WrapError(err, errors.CategoryNetwork, "Contentful request failed").
			Retryable().
			WithContext("path", req.path).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()
	c.recorder.IncSourceRequest(Name, resp.StatusCode)

	if resp.StatusCode >= http.StatusBadRequest {
		return c.responseError(req, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapError(err, errors.CategorySource, "failed to decode Contentful response").
			WithContext("path", req.path).
			Build()
	}
	return nil
}

func (c *client) responseError(req request, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &payload)
	apiErr := &apiError{Status: resp.StatusCode, Message: payload.Message}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr.retryAfter = parseReset(resp.Header.Get(headerRateLimitReset))
		c.limiter.RecordRateLimit(apiErr.retryAfter)
		return errors.WrapError(apiErr, errors.CategoryNetwork, "Contentful rate limit exceeded").
			RateLimit().
			WithContext("path", req.path).
			Build()
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.WrapError(apiErr, errors.CategoryAuth, "Contentful rejected the access token").
			UserAction().
			WithContext("path", req.path).
			Build()
	case resp.StatusCode == http.StatusNotFound:
		return errors.WrapError(apiErr, errors.CategoryConfig, "Contentful resource not found (check space id and environment)").
			WithContext("path", req.path).
			Build()
	case resp.StatusCode >= http.StatusInternalServerError:
		return errors.WrapError(apiErr, errors.CategorySource, "Contentful server error").
			Retryable().
			WithContext("path", req.path).
			Build()
	default:
		return errors.WrapError(apiErr, errors.CategorySource, "Contentful request rejected").
			WithContext("path", req.path).
			WithContext("status", resp.StatusCode).
			Build()
	}
}

// parseReset reads the reset header, given in whole seconds.
func parseReset(v string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return time.Second
	}
	return time.Duration(n) * time.Second
}
