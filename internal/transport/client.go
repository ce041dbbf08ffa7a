// Package transport provides the resilient HTTP caller used for every
// outbound WordPress request: per-attempt timeouts, transient failure
// classification and bounded exponential backoff.
package transport

import (
	"net/http"
	"time"
)

const (
	// DefaultMetadataTimeout is the per-attempt budget for JSON calls.
	DefaultMetadataTimeout = 30 * time.Second
	// DefaultBinaryTimeout is the per-attempt budget for binary media
	// transfer. Uploads are not resumable, so they get a longer budget.
	DefaultBinaryTimeout = 60 * time.Second

	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second
)

// newHTTPClient creates an HTTP client with pooled connections and a hard
// timeout covering the whole request including body read. A timed-out attempt
// is cancelled by the client, not left running.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        defaultMaxIdleConns,
			MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
			IdleConnTimeout:     defaultIdleConnTimeout,
			TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
		},
	}
}
