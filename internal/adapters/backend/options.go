package backend

import (
	"net/http"
	"time"

	"github.com/okian/stagerank/pkg/logger"
	"golang.org/x/time/rate"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit throttles outbound calls to rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, burst))
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
