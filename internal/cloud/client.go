package cloud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/lifxctl/internal/logging"
)

const (
	// DefaultBaseURL is the public cloud API endpoint
	DefaultBaseURL = "https://api.lifx.com/v1"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second
)

// Client is a thin wrapper over the cloud REST API. It authenticates
// every request with a bearer token and retries transient failures with
// exponential backoff. The LAN path has its own transport rules; retry
// here applies to HTTP only.
type Client struct {
	// BaseURL is the API root, DefaultBaseURL unless overridden in tests
	BaseURL string

	// Token is the personal access token sent as a Bearer credential
	Token string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool
}

// NewClient creates a cloud API client with the given access token.
func NewClient(token string) *Client {
	return &Client{
		BaseURL:               DefaultBaseURL,
		Token:                 token,
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// do runs one API request with the retry loop. The path must start with
// a slash; body, when non-nil, is sent as JSON.
func (c *Client) do(method, path string, body any) ([]byte, error) {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(currentDelay)

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		data, err := c.doAttempt(method, path, body)
		if err == nil {
			return data, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}

		logging.Warn("Cloud request failed, retrying",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, lastErr
}

// doAttempt performs a single API request
func (c *Client) doAttempt(method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, NewParseError("failed to encode request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return nil, NewNetworkError("failed to create request", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError("request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, NewAuthError("token rejected (check `lifxctl cloud login`)")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewRateLimitError("API rate limit exceeded")
	case resp.StatusCode >= 400:
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, apiErrorDetail(respBody)))
	}

	return respBody, nil
}

// apiErrorDetail extracts the error field the API includes in failure
// bodies, falling back to the raw body.
func apiErrorDetail(body []byte) string {
	var detail struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Error != "" {
		return detail.Error
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
