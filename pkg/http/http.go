// Package http wraps the transport used to talk to the feed API.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/glorpus-work/ritani-feeds/pkg/auth"
	"github.com/glorpus-work/ritani-feeds/pkg/errors"
	"github.com/google/uuid"
)

// RequestIDHeader carries a per-request id that is also logged locally.
const RequestIDHeader = "X-Request-Id"

// Client stamps the common headers onto requests and hands them to a Doer.
type Client struct {
	doer      Doer
	userAgent string
}

// NewHTTPClient creates a client backed by net/http. A zero timeout means no
// client-side deadline; redirects are followed with the default policy.
func NewHTTPClient(timeout time.Duration, userAgent string) *Client {
	return NewClient(&http.Client{Timeout: timeout}, userAgent)
}

// NewClient creates a client on top of an arbitrary Doer.
func NewClient(doer Doer, userAgent string) *Client {
	if userAgent == "" {
		userAgent = "ritani-feeds"
	}
	return &Client{
		doer:      doer,
		userAgent: userAgent,
	}
}

// UserAgent returns the User-Agent sent with every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// NewAPIRequest builds a request against the feed API: it carries the
// User-Agent, a fresh request id and, when authn is non-nil, the credentials.
func (c *Client) NewAPIRequest(ctx context.Context, method, url string, body io.Reader, authn auth.Authenticator) (*http.Request, error) {
	req, err := c.NewRequest(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if authn != nil {
		if err := authn.Apply(req); err != nil {
			return nil, errors.Wrap(err, "failed to apply authentication")
		}
	}
	return req, nil
}

// NewRequest builds a bare request carrying only the User-Agent. It is used for
// pre-signed URLs, which must not receive the API credentials.
func (c *Client) NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// Do sends the request.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.doer.Do(req)
}

// IsSuccess reports whether status is a 2xx code.
func IsSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// DrainAndClose discards what is left of a response body and closes it so
// the underlying connection can be reused.
func DrainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
