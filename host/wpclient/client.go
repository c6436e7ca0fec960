// Package wpclient talks to a remote WordPress site's REST media endpoints.
package wpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edigermatthew/wonder-alt/host"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

const mediaPath = "/wp-json/wp/v2/media"

// Options configures a Client.
type Options struct {
	BaseURL     string
	Username    string
	AppPassword string
	Timeout     time.Duration
	RetryMax    int
	Logger      host.Logger
}

// Media is the subset of a REST media item the backfill needs.
type Media struct {
	ID        int    `json:"id"`
	AltText   string `json:"alt_text"`
	MimeType  string `json:"mime_type"`
	MediaType string `json:"media_type"`
	Title     struct {
		Raw      string `json:"raw"`
		Rendered string `json:"rendered"`
	} `json:"title"`
}

// TitleText prefers the raw title, which edit context returns.
func (m Media) TitleText() string {
	if m.Title.Raw != "" {
		return m.Title.Raw
	}
	return m.Title.Rendered
}

// APIError is a non-2xx reply from WordPress.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("wordpress: status %d", e.Status)
	}
	return fmt.Sprintf("wordpress: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// Client provides resilient WordPress REST calls.
type Client struct {
	base     *url.URL
	username string
	password string
	retry    *retryablehttp.Client
	breaker  *gobreaker.CircuitBreaker
	logger   host.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	if opts.RetryMax > 0 {
		client.RetryMax = opts.RetryMax
	}
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = nil
	if opts.Logger != nil {
		client.Logger = retryablehttp.LeveledLogger(opts.Logger)
	}
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}

	settings := gobreaker.Settings{
		Name:        "wordpress-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
	}

	return &Client{
		base:     base,
		username: opts.Username,
		password: opts.AppPassword,
		retry:    client,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		logger:   opts.Logger,
	}, nil
}

// ListMedia returns one page of image attachments and the total page count.
// A page past the end yields no items.
func (c *Client) ListMedia(ctx context.Context, page, perPage int) ([]Media, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 100
	}

	query := url.Values{}
	query.Set("context", "edit")
	query.Set("media_type", "image")
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("orderby", "id")
	query.Set("order", "asc")

	var items []Media
	totalPages := 0
	err := c.execute(ctx, func() error {
		resp, err := c.do(ctx, http.MethodGet, mediaPath+"?"+query.Encode(), nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		totalPages, _ = strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
		return json.NewDecoder(resp.Body).Decode(&items)
	})

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == "rest_post_invalid_page_number" {
		return nil, totalPages, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return items, totalPages, nil
}

// UpdateAltText sets alt_text on a media item.
func (c *Client) UpdateAltText(ctx context.Context, id int, alt string) error {
	body, err := json.Marshal(map[string]string{"alt_text": alt})
	if err != nil {
		return err
	}

	if c.logger != nil {
		c.logger.Debug("updating remote alt text", "media_id", id)
	}
	return c.execute(ctx, func() error {
		resp, err := c.do(ctx, http.MethodPost, mediaPath+"/"+strconv.Itoa(id), body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})
}

func (c *Client) execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// do sends the request and converts non-2xx replies into *APIError.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.retry.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	apiErr := &APIError{Status: resp.StatusCode}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr)
	return nil, apiErr
}
