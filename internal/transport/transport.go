package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/draftwise/wp-publisher/internal/logger"
)

const (
	// DefaultMaxRetries bounds retries of transient failures. Two retries
	// means up to three attempts in total.
	DefaultMaxRetries = 2

	baseBackoff = 1000 * time.Millisecond
	maxBackoff  = 8000 * time.Millisecond

	drainLimit = 4 << 10 // drain at most 4KiB before discarding a retryable response
)

// Config configures a Caller.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Negative values are treated as zero.
	MaxRetries int
	// MetadataTimeout is the per-attempt timeout for JSON calls.
	MetadataTimeout time.Duration
	// BinaryTimeout is the per-attempt timeout for binary transfers.
	BinaryTimeout time.Duration
}

// DefaultConfig returns the production retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		MetadataTimeout: DefaultMetadataTimeout,
		BinaryTimeout:   DefaultBinaryTimeout,
	}
}

// Request describes a single logical call. The body is held as bytes so the
// request can be rebuilt for each retry attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	// Binary selects the longer timeout budget used for media transfer.
	Binary bool
	// Label identifies the call in retry log lines.
	Label string
}

// Caller issues HTTP requests with per-attempt timeouts and bounded
// exponential-backoff retry of transient failures.
type Caller struct {
	metaClient   *http.Client
	binaryClient *http.Client
	maxRetries   int
	logger       logger.Logger
}

// New creates a Caller. Zero config values fall back to defaults.
func New(cfg Config, log logger.Logger) *Caller {
	if cfg.MetadataTimeout <= 0 {
		cfg.MetadataTimeout = DefaultMetadataTimeout
	}
	if cfg.BinaryTimeout <= 0 {
		cfg.BinaryTimeout = DefaultBinaryTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Caller{
		metaClient:   newHTTPClient(cfg.MetadataTimeout),
		binaryClient: newHTTPClient(cfg.BinaryTimeout),
		maxRetries:   cfg.MaxRetries,
		logger:       log,
	}
}

// Do executes the request, retrying transient failures (connection errors,
// timeouts, DNS failures and HTTP 429/502/503/504) with exponential backoff.
// On exhausting retries it returns the last response for retryable status
// codes, or the last transport-level error. Terminal status codes (any other
// 4xx/5xx) are returned immediately without retry; the caller decides how to
// interpret them.
func (c *Caller) Do(ctx context.Context, req Request) (*http.Response, error) {
	client := c.metaClient
	if req.Binary {
		client = c.binaryClient
	}

	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.waitBackoff(ctx, req.Label, attempt); err != nil {
				return nil, err
			}
		}

		httpReq, err := c.buildRequest(ctx, req)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			if !isTransientErr(err) {
				return nil, err
			}
			lastErr = err
			lastResp = nil
			continue
		}

		if !IsRetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		lastErr = nil
		lastResp = resp
		if attempt < c.maxRetries {
			// Discard so the connection can be reused for the retry.
			_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
			_ = resp.Body.Close()
		}
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, fmt.Errorf("%s: retries exhausted: %w", req.Label, lastErr)
}

func (c *Caller) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	return httpReq, nil
}

// waitBackoff sleeps for min(1s * 2^(attempt-1), 8s) before the given retry
// attempt, honouring context cancellation.
func (c *Caller) waitBackoff(ctx context.Context, label string, attempt int) error {
	delay := baseBackoff << (attempt - 1)
	if delay > maxBackoff {
		delay = maxBackoff
	}

	c.logger.Warn("retrying remote call",
		logger.String("label", label),
		logger.Int("attempt", attempt),
		logger.Duration("backoff", delay),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// IsRetryableStatus reports whether an HTTP status code indicates a failure
// plausibly caused by temporary server conditions.
func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// transientPatterns match transport-level failures worth retrying.
var transientPatterns = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"no such host",
	"temporary failure",
	"network is unreachable",
	"i/o timeout",
}

func isTransientErr(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
