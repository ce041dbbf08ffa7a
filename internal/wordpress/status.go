package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/draftwise/wp-publisher/internal/transport"
)

// FetchStatus retrieves the authoritative status of a previously published
// post, using an edit-context query so non-public statuses are visible.
// Results are never cached; reconciliation always sees fresh state.
func (c *Client) FetchStatus(ctx context.Context, creds Credentials, postID int64) (*RemotePostStatus, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	creds = creds.normalize()

	resp, err := c.caller.Do(ctx, transport.Request{
		Method: http.MethodGet,
		URL:    endpoint(creds, fmt.Sprintf("/posts/%d?context=edit", postID)),
		Header: jsonAuthHeader(creds),
		Label:  "fetch_status",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: post %d", ErrPostNotFound, postID)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, transport.ParseHTTPError(resp)
	}

	var status RemotePostStatus
	if decodeErr := json.NewDecoder(resp.Body).Decode(&status); decodeErr != nil {
		return nil, fmt.Errorf("decode status response: %w", decodeErr)
	}
	return &status, nil
}
