// Package reviewapi is the HTTP client of the review store.
package reviewapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reviewshare/internal/review/model"
	"reviewshare/pkg/logger"
)

// ErrNotFound is returned when the store answers a public review lookup with
// no review.
var ErrNotFound = errors.New("reviewapi: review not found")

// NetworkError reports a failed request or a non-2xx response.
type NetworkError struct {
	Op         string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("reviewapi: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("reviewapi: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means the requested review does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.StatusCode == http.StatusNotFound
}

const defaultTimeout = 10 * time.Second

// Client talks to the review store over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
}

// Option configures a Client in New.
type Option func(*Client)

// WithToken sets the bearer token sent with every request. Without it the
// store only returns public reviews and refuses changes.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient makes the client send requests through hc. hc itself is
// never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New returns a client for the store at baseURL, e.g. "https://api.example.com".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.http == nil:
		timeout := c.timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	case c.timeout > 0:
		// Work on a copy; the caller's client is shared with other code.
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// ListUserReviews returns the reviews of userID in store order. Private
// reviews are included only when the token belongs to userID.
func (c *Client) ListUserReviews(ctx context.Context, userID string) ([]model.Review, error) {
	q := url.Values{"userId": {userID}}
	var reviews []model.Review
	if err := c.do(ctx, "get-user-reviews", http.MethodGet, "/reviews/get-user-reviews?"+q.Encode(), nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// GetPublicReview fetches a single public review.
func (c *Client) GetPublicReview(ctx context.Context, id string) (*model.Review, error) {
	var reviews []model.Review
	if err := c.do(ctx, "get-public-review", http.MethodGet, "/reviews/get-public-review/"+url.PathEscape(id), nil, &reviews); err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, ErrNotFound
	}
	return &reviews[0], nil
}

// Upsert creates or updates a review. The response body is ignored.
func (c *Client) Upsert(ctx context.Context, req model.UpsertRequest) error {
	return c.do(ctx, "upsert-review", http.MethodPost, "/reviews/upsert-review", req, nil)
}

// Delete removes the review identified by req.ID owned by req.UserID.
func (c *Client) Delete(ctx context.Context, req model.DeleteRequest) error {
	return c.do(ctx, "delete-review", http.MethodDelete, "/reviews/delete-review", req, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("reviewapi: %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Sugar.Debugf("reviewapi: %s %s failed: %v", method, path, err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(msg))),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
