package newsblur

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRate is the default request rate in requests per second.
	DefaultRate = 5

	// DefaultBurst is the default request burst.
	DefaultBurst = 5

	// SessionCookie is the name of the server's session cookie.
	SessionCookie = "newsblur_sessionid"

	// maxBody bounds how much of a response body is read.
	maxBody = 32 << 20
)

// Ensure Client implements the interface.
var _ driven.API = (*Client)(nil)

// Client is a NewsBlur API client.
type Client struct {
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	cookie    string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit sets the request rate and burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithSessionCookie authenticates requests with a session cookie obtained
// from Login.
func WithSessionCookie(cookie string) Option {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithTokenSource authenticates requests with OAuth bearer tokens. It wraps
// the transport of the HTTP client configured so far.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *c.http
		hc.Transport = &oauth2.Transport{Source: ts, Base: base}
		c.http = &hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRate), DefaultBurst),
		userAgent: "feedsync",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates with username and password and returns the session
// cookie to store for later runs.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var body actionResponse
	resp, err := c.do(ctx, http.MethodPost, "/api/login", form, &body)
	if err != nil {
		return "", err
	}
	if !body.Authenticated {
		msg := "invalid credentials"
		if errs := body.Errors.list(); len(errs) > 0 {
			msg = errs[0]
		}
		return "", fmt.Errorf("%w: %s", domain.ErrUnauthenticated, msg)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck.Value
			return ck.Value, nil
		}
	}
	return "", fmt.Errorf("%w: login response carried no session cookie", domain.ErrMalformedResponse)
}

// statusError is returned by do for non-2xx responses.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.code)
}

// Is maps authentication failures onto domain.ErrUnauthenticated and every
// other status onto domain.ErrTransport.
func (e *statusError) Is(target error) bool {
	if e.code == http.StatusUnauthorized || e.code == http.StatusForbidden {
		return target == domain.ErrUnauthenticated
	}
	return target == domain.ErrTransport
}

// do sends a request and decodes the JSON body into out. GET requests carry
// params in the query string, POST requests as a form.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, out any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", domain.ErrTransport, err)
	}

	endpoint := c.baseURL + path
	var body io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			endpoint += "?" + params.Encode()
		}
	} else {
		body = strings.NewReader(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.cookie})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return resp, fmt.Errorf("%s %s: %w", method, path, &statusError{code: resp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp, fmt.Errorf("%w: read %s: %v", domain.ErrTransport, path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp, fmt.Errorf("%w: decode %s: %v", domain.ErrMalformedResponse, path, err)
	}
	return resp, nil
}

// isUnauthenticated reports whether err is an authentication failure.
func isUnauthenticated(err error) bool {
	return errors.Is(err, domain.ErrUnauthenticated)
}
