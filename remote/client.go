// Package remote is a client for the translation service REST API.
//
// Three endpoints are used:
//
//	GET  {host}/api/v3/brands/{brand}/languages/{locale}/dictionary  dictionary of one locale
//	GET  {host}/api/v2/brands/{brand}/languages                      supported languages
//	POST {host}/api/v2/messages                                      create one message
//
// Every call authenticates with the key query parameter. Calls are never
// retried.
package remote

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

	"github.com/filebrowser/transync/catalog"
)

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "transync/1.0"

// maxErrorBody bounds the response body kept in a StatusError.
const maxErrorBody = 500

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ErrUnexpectedStatus is matched by every StatusError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError is returned when the service answers with a non-success status.
type StatusError struct {
	// Op names the call ("dictionary", "languages", "create message").
	Op string
	// URL is the request URL with the key redacted.
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Language describes one locale supported by a brand.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// Response is the raw outcome of a create call.
type Response struct {
	StatusCode int
	Body       string
}

// Options configures a Client.
type Options struct {
	// Host is the service base URL, e.g. "https://translations.example.com".
	Host string
	// Brand partitions catalogs on the service.
	Brand string
	// Key is the API authentication token.
	Key string
	// Timeout is the per-request timeout (0 = 30s).
	Timeout time.Duration
	// Proxy overrides HTTP_PROXY/HTTPS_PROXY when set.
	Proxy string
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// HTTPClient replaces the client built from Timeout and Proxy.
	HTTPClient *http.Client
}

// Client talks to one brand on one service host.
type Client struct {
	host      string
	brand     string
	key       string
	userAgent string
	http      *http.Client
}

// New returns a client for the given options.
func New(opts Options) *Client {
	c := &Client{
		host:      strings.TrimRight(opts.Host, "/"),
		brand:     opts.Brand,
		key:       opts.Key,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		c.http = makeHTTPClient(opts.Proxy, timeout)
	}
	return c
}

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Endpoints
// ---------------------------------------------------------------------------

// Dictionary fetches the catalog of locale. When fallback is not empty the
// service fills slugs missing in locale from the fallback locale.
func (c *Client) Dictionary(ctx context.Context, locale, fallback string) (*catalog.Flat, error) {
	q := url.Values{}
	if fallback != "" {
		q.Set("fallback_locale", fallback)
	}
	endpoint := c.endpoint(q, "api", "v3", "brands", c.brand, "languages", locale, "dictionary")

	body, err := c.get(ctx, "dictionary", endpoint)
	if err != nil {
		return nil, err
	}

	dict, err := catalog.ParseDictionary(body)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", locale, err)
	}
	return dict, nil
}

// Languages lists the locales supported by the brand.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	endpoint := c.endpoint(nil, "api", "v2", "brands", c.brand, "languages")

	body, err := c.get(ctx, "languages", endpoint)
	if err != nil {
		return nil, err
	}

	var langs []Language
	if err := json.Unmarshal(body, &langs); err != nil {
		return nil, fmt.Errorf("languages: parsing response: %w", err)
	}
	return langs, nil
}

// CreateMessage creates one dictionary entry for slug. The response is
// returned even when the status is not 2xx, together with a *StatusError.
func (c *Client) CreateMessage(ctx context.Context, slug, body string) (*Response, error) {
	endpoint := c.endpoint(nil, "api", "v2", "messages")

	form := url.Values{}
	form.Set("brand", c.brand)
	form.Set("body", body)
	form.Set("slug", slug)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create message: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, respBody, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("create message %q: %w", slug, err)
	}

	resp := &Response{StatusCode: status, Body: string(respBody)}
	if status < 200 || status > 299 {
		return resp, c.statusError("create message", endpoint, status, respBody)
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// Plumbing
// ---------------------------------------------------------------------------

// endpoint builds {host}/{segments...}?key={key}&{extra}. Segments are
// path-escaped.
func (c *Client) endpoint(extra url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	q := url.Values{}
	q.Set("key", c.key)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return c.host + "/" + strings.Join(escaped, "/") + "?" + q.Encode()
}

func (c *Client) get(ctx context.Context, op, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}

	status, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if status != http.StatusOK {
		return nil, c.statusError(op, endpoint, status, body)
	}
	return body, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = c.redact(ue.URL)
		}
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) statusError(op, endpoint string, status int, body []byte) *StatusError {
	return &StatusError{
		Op:         op,
		URL:        c.redact(endpoint),
		StatusCode: status,
		Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
	}
}

// redact hides the API key in URLs and error messages.
func (c *Client) redact(s string) string {
	if c.key == "" {
		return s
	}
	s = strings.ReplaceAll(s, "key="+url.QueryEscape(c.key), "key=REDACTED")
	return strings.ReplaceAll(s, c.key, "REDACTED")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
