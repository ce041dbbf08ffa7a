// Package wordpress implements the WordPress REST API client: media library
// uploads, idempotent post publishing and status fetches. All network traffic
// goes through the resilient transport; expected failures surface as typed
// errors, never panics.
package wordpress

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/transport"
)

const restBase = "/wp-json/wp/v2"

// Client talks to WordPress sites. One client serves all sites; credentials
// are supplied per call.
type Client struct {
	caller *transport.Caller
	logger logger.Logger
}

// NewClient creates a WordPress client on top of the given transport.
func NewClient(caller *transport.Caller, log logger.Logger) *Client {
	return &Client{
		caller: caller,
		logger: log,
	}
}

// endpoint builds a REST API URL for a normalized site.
func endpoint(creds Credentials, path string) string {
	return creds.BaseURL + restBase + path
}

// basicAuth returns the Authorization header value for the site's
// application password.
func basicAuth(creds Credentials) string {
	token := base64.StdEncoding.EncodeToString(
		[]byte(fmt.Sprintf("%s:%s", creds.Username, creds.ApplicationPassword)))
	return "Basic " + token
}

func authHeader(creds Credentials) http.Header {
	h := http.Header{}
	h.Set("Authorization", basicAuth(creds))
	return h
}

func jsonAuthHeader(creds Credentials) http.Header {
	h := authHeader(creds)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}
