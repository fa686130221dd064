// Package brightpearl is a small read-only client for the Brightpearl public
// API: paged searches, single resources, request pacing and retries.
package brightpearl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bpmigrate/internal/retry"
)

const (
	DefaultRequestDelay = 500 * time.Millisecond
	DefaultMaxAttempts  = 5
	DefaultRetryDelay   = time.Second
	DefaultTimeout      = 30 * time.Second
	// PageSize is the largest page Brightpearl searches return.
	PageSize = 200
)

// ErrNotFound is returned for 404s and for empty resource responses.
var ErrNotFound = errors.New("brightpearl: not found")

// StatusError is a non-2xx response other than 404.
type StatusError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("brightpearl: GET %s: HTTP %d: %s", e.Path, e.StatusCode, e.Body)
}

// Retryable reports whether the status is rate limiting or a temporary outage.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

// Config holds the account credentials and the request policy.
type Config struct {
	Account string
	Token   string
	Domain  string
	AppRef  string
	// BaseURL replaces https://{Domain}/public-api/{Account} when set.
	BaseURL string
	// RequestDelay is the minimum spacing between requests. Zero disables pacing.
	RequestDelay time.Duration
	MaxAttempts  int
	// RetryDelay is the wait after the first retryable failure; it doubles after each one.
	RetryDelay time.Duration
	Timeout    time.Duration
	// Sleep replaces the retry timer in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

type Client struct {
	baseURL    string
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		if cfg.Domain == "" || cfg.Account == "" {
			return nil, eris.New("brightpearl: api domain and account are required")
		}
		base = fmt.Sprintf("https://%s/public-api/%s", cfg.Domain, cfg.Account)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    base,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		log:        log,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Ping runs a one-row contact search to check credentials and connectivity.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{"firstResult": {"1"}, "maxResults": {"1"}}
	return c.get(ctx, "/contact-service/contact-search", params, nil)
}

// TagID resolves a contact tag name, compared case-insensitively.
func (c *Client) TagID(ctx context.Context, name string) (string, error) {
	var env struct {
		Response json.RawMessage `json:"response"`
	}
	if err := c.get(ctx, "/contact-service/tag", nil, &env); err != nil {
		return "", err
	}
	tags, err := decodeTags(env.Response)
	if err != nil {
		return "", err
	}
	want := strings.TrimSpace(name)
	for _, t := range tags {
		if strings.EqualFold(strings.TrimSpace(string(t.TagName)), want) {
			return string(t.TagID), nil
		}
	}
	return "", eris.Wrapf(ErrNotFound, "brightpearl: tag %q", name)
}

// decodeTags accepts both the keyed-object and the array form of the tag list.
func decodeTags(raw json.RawMessage) ([]Tag, error) {
	var keyed map[string]Tag
	if err := json.Unmarshal(raw, &keyed); err == nil {
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tags := make([]Tag, 0, len(keys))
		for _, k := range keys {
			t := keyed[k]
			if t.TagID == "" {
				t.TagID = Text(k)
			}
			tags = append(tags, t)
		}
		return tags, nil
	}
	var list []Tag
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, eris.Wrap(err, "brightpearl: decode tags")
	}
	return list, nil
}

// ContactIDsWithTag lists the ids of every contact carrying the tag.
func (c *Client) ContactIDsWithTag(ctx context.Context, tagID string) ([]string, error) {
	return c.searchIDs(ctx, "/contact-service/contact-search", url.Values{"tagIds": {tagID}})
}

// OrderIDs lists the ids of every order of a department.
func (c *Client) OrderIDs(ctx context.Context, departmentID int) ([]string, error) {
	return c.searchIDs(ctx, "/order-service/order-search", url.Values{"departmentId": {strconv.Itoa(departmentID)}})
}

// searchIDs walks a paged search and collects column 0 of every result row.
// It stops on an empty or short page.
func (c *Client) searchIDs(ctx context.Context, path string, filter url.Values) ([]string, error) {
	var ids []string
	first := 1
	for {
		params := url.Values{}
		for k, v := range filter {
			params[k] = v
		}
		params.Set("firstResult", strconv.Itoa(first))
		params.Set("maxResults", strconv.Itoa(PageSize))

		var env struct {
			Response struct {
				Results [][]Text `json:"results"`
			} `json:"response"`
		}
		if err := c.get(ctx, path, params, &env); err != nil {
			return ids, err
		}

		page := 0
		for _, row := range env.Response.Results {
			if len(row) == 0 {
				continue
			}
			ids = append(ids, string(row[0]))
			page++
		}
		c.log.Debug("search page",
			zap.String("path", path), zap.Int("first_result", first), zap.Int("results", page))
		if page < PageSize {
			return ids, nil
		}
		first += page
	}
}

// Contact fetches one contact including its custom fields.
func (c *Client) Contact(ctx context.Context, id string) (Contact, error) {
	var out Contact
	raw, err := c.ContactJSON(ctx, id)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, eris.Wrapf(err, "brightpearl: decode contact %s", id)
	}
	return out, nil
}

// ContactJSON is Contact without decoding.
func (c *Client) ContactJSON(ctx context.Context, id string) (json.RawMessage, error) {
	return c.record(ctx, "/contact-service/contact/"+url.PathEscape(id), url.Values{"includeOptional": {"customFields"}})
}

func (c *Client) PostalAddress(ctx context.Context, id string) (PostalAddress, error) {
	var out PostalAddress
	raw, err := c.record(ctx, "/contact-service/postal-address/"+url.PathEscape(id), nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, eris.Wrapf(err, "brightpearl: decode postal address %s", id)
	}
	if out.AddressID == "" {
		out.AddressID = Text(id)
	}
	return out, nil
}

func (c *Client) Order(ctx context.Context, id string) (Order, error) {
	var out Order
	raw, err := c.OrderJSON(ctx, id)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, eris.Wrapf(err, "brightpearl: decode order %s", id)
	}
	return out, nil
}

// OrderJSON is Order without decoding.
func (c *Client) OrderJSON(ctx context.Context, id string) (json.RawMessage, error) {
	return c.record(ctx, "/order-service/order/"+url.PathEscape(id), nil)
}

// record returns the first element of a resource response.
func (c *Client) record(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	var env struct {
		Response []json.RawMessage `json:"response"`
	}
	if err := c.get(ctx, path, params, &env); err != nil {
		return nil, err
	}
	if len(env.Response) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "brightpearl: %s", path)
	}
	return env.Response[0], nil
}

// get performs a paced GET under the retry policy and decodes the body into
// out when it is not nil.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	policy := retry.Policy{
		MaxAttempts: c.cfg.MaxAttempts,
		Backoff:     retry.Doubling(c.cfg.RetryDelay),
		Classify:    classify,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			c.log.Warn("brightpearl request failed, retrying",
				zap.String("path", path), zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.cfg.MaxAttempts), zap.Duration("wait", delay), zap.Error(err))
		},
		Sleep: c.cfg.Sleep,
	}

	var body []byte
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		b, err := c.do(ctx, path, target)
		body = b
		return err
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "brightpearl: decode %s", path)
	}
	return nil
}

func classify(err error) retry.Decision {
	var se *StatusError
	if errors.As(err, &se) && se.Retryable() {
		return retry.Retry
	}
	return retry.Abort
}

func (c *Client) do(ctx context.Context, path, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "brightpearl: create request")
	}
	req.Header.Set("brightpearl-account-token", c.cfg.Token)
	req.Header.Set("brightpearl-app-ref", c.cfg.AppRef)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "brightpearl: GET %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "brightpearl: read %s", path)
	}
	c.log.Debug("brightpearl response",
		zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, eris.Wrapf(ErrNotFound, "brightpearl: GET %s", path)
	case resp.StatusCode >= 300:
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
