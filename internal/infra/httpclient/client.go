package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/ChaseRain/storycards/internal/infra/limiter"
)

type Options struct {
	// Timeout bounds every single attempt, body read included.
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Limiter    *limiter.Limiter
}

type Client struct {
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	limiter    *limiter.Limiter
}

// StatusError is returned for responses the caller did not accept.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

func New(opts Options) *Client {
	lim := opts.Limiter
	if lim == nil {
		lim = limiter.New(1, 10)
	}
	return &Client{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		limiter:    lim,
	}
}

// Do sends req. GET and HEAD requests are retried on transport errors and
// 5xx responses; anything else gets exactly one attempt.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	attempts := uint(1)
	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		attempts += uint(c.maxRetries)
	}

	var resp *http.Response
	err := retry.Do(
		func() error {
			release, err := c.limiter.Acquire(ctx)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			defer release()

			r, err := c.client.Do(req.Clone(ctx))
			if err != nil {
				return err
			}
			if r.StatusCode >= 500 {
				statusErr := readStatusError(r)
				r.Body.Close()
				return statusErr
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// GetJSON performs a GET and decodes a 2xx JSON body into result.
func (c *Client) GetJSON(ctx context.Context, url string, result any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return readStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetBytes performs a GET and returns a 2xx body.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, readStatusError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) Post(ctx context.Context, url string, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

func (c *Client) PostJSON(ctx context.Context, url string, body []byte) (*http.Response, error) {
	return c.Post(ctx, url, "application/json", body)
}

// readStatusError drains resp and extracts the backend's {"error": "..."} message when present.
func readStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Error string `json:"error"`
	}
	msg := string(bytes.TrimSpace(body))
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		msg = errResp.Error
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
