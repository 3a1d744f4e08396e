package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const sessionHeader = "X-Session-ID"

// HTTPClient wraps http.Client with a base URL and an optional rate limit.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

func newHTTPClient(baseURL string, timeout time.Duration, rps float64) *HTTPClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: limiter,
	}
}

// do sends body as JSON and decodes a 2xx response into out. The status code
// is returned for every response that arrived.
func (c *HTTPClient) do(ctx context.Context, method, path, sessionID string, body, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *HTTPClient) get(ctx context.Context, path, sessionID string, out any) error {
	_, err := c.do(ctx, http.MethodGet, path, sessionID, nil, out)
	return err
}
