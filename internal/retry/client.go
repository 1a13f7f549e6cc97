// Package retry wraps an HTTP transport with capped exponential backoff for
// transient failures. The order-service client plugs it in beneath the
// circuit breaker so that short network blips never reach the breaker's
// failure counts.
package retry

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quantrail/stratforge/internal/broker"
)

type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

var DefaultConfig = Config{
	MaxRetries:     3,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     10 * time.Second,
}

// Client implements broker.Doer around a base transport, retrying transient
// failures. Requests with a body are retried only when GetBody is available
// to rewind them; http.NewRequest sets it for the common body types.
type Client struct {
	base   broker.Doer
	logger *logrus.Logger
	config Config
}

var _ broker.Doer = (*Client)(nil)

func NewClient(base broker.Doer, logger *logrus.Logger, config ...Config) *Client {
	if base == nil {
		base = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.New()
	}

	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultConfig.MaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultConfig.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultConfig.MaxBackoff
	}

	return &Client{
		base:   base,
		logger: logger,
		config: cfg,
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	maxAttempts := c.config.MaxRetries + 1
	if req.Body != nil && req.GetBody == nil {
		// Cannot rewind the body for a second attempt.
		maxAttempts = 1
	}

	var lastErr error
	backoff := c.config.InitialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request canceled: %w", ctx.Err())
		}

		if attempt > 1 {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			req.Body = body
		}

		resp, err := c.base.Do(req)
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		if err != nil {
			if !isTransientError(err) || attempt == maxAttempts {
				return nil, err
			}
			lastErr = err
		} else {
			if attempt == maxAttempts {
				// Let the caller map the status and body.
				return resp, nil
			}
			lastErr = fmt.Errorf("%s %s returned %s", req.Method, req.URL.Path, resp.Status)
			drainBody(resp)
		}

		c.logger.WithFields(logrus.Fields{
			"method":  req.Method,
			"path":    req.URL.Path,
			"attempt": attempt,
			"backoff": backoff,
		}).Warnf("Transient failure, retrying: %v", lastErr)

		select {
		case <-time.After(backoff):
			backoff = c.nextBackoff(backoff)
		case <-ctx.Done():
			return nil, fmt.Errorf("request canceled during backoff: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}

// nextBackoff grows the delay by 1.5x up to the cap, plus jitter in
// [0, backoff/4) so concurrent retries spread out.
func (c *Client) nextBackoff(current time.Duration) time.Duration {
	backoff := time.Duration(float64(current) * 1.5)
	if backoff > c.config.MaxBackoff {
		backoff = c.config.MaxBackoff
	}

	maxJitter := int64(backoff / 4)
	if maxJitter > 0 {
		jitterVal, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
		if err != nil {
			c.logger.Warnf("Failed to generate jitter: %v", err)
		} else {
			backoff += time.Duration(jitterVal.Int64())
		}
	}

	return backoff
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// drainBody releases the connection of a response we are about to discard.
func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_ = resp.Body.Close()
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	transientPatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"temporary failure",
		"network",
		"dns",
		"tcp",
		"eof",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
