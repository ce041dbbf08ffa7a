package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/draftwise/wp-publisher/internal/content"
	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/transport"
)

// wpDateLayout is the site-local datetime format WordPress expects.
const wpDateLayout = "2006-01-02T15:04:05"

type postBody struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt,omitempty"`
	Status        string `json:"status"`
	Date          string `json:"date,omitempty"`
	DateGMT       string `json:"date_gmt,omitempty"`
	FeaturedMedia int64  `json:"featured_media,omitempty"`
	Categories    []int  `json:"categories,omitempty"`
	Tags          []int  `json:"tags,omitempty"`
}

// Publish assembles the post body and performs one idempotent
// create-or-update call. ExistingPostID selects the update endpoint; its
// absence selects create. A 404 on update surfaces as ErrPostNotFound so the
// caller can decide whether to adopt a new post id — the client never
// silently creates a duplicate.
func (c *Client) Publish(ctx context.Context, creds Credentials, req PublishRequest) (*RemotePostResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	creds = creds.normalize()

	body, err := c.buildPostBody(ctx, creds, req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal post body: %w", err)
	}

	url := endpoint(creds, "/posts")
	label := "create_post"
	if req.ExistingPostID > 0 {
		url = endpoint(creds, fmt.Sprintf("/posts/%d", req.ExistingPostID))
		label = "update_post"
	}

	resp, err := c.caller.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    url,
		Header: jsonAuthHeader(creds),
		Body:   payload,
		Label:  label,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && req.ExistingPostID > 0 {
		return nil, fmt.Errorf("%w: post %d", ErrPostNotFound, req.ExistingPostID)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, transport.ParseHTTPError(resp)
	}

	var result RemotePostResult
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil {
		return nil, fmt.Errorf("decode post response: %w", decodeErr)
	}

	c.logger.Info("published post",
		logger.String("site", creds.BaseURL),
		logger.String("label", label),
		logger.Int64("post_id", result.PostID),
		logger.String("url", result.URL),
	)
	return &result, nil
}

// buildPostBody converts content, resolves the publication status and
// attaches the featured image. A failed thumbnail upload is logged and the
// post proceeds without one.
func (c *Client) buildPostBody(ctx context.Context, creds Credentials, req PublishRequest) (*postBody, error) {
	html, err := content.ToHTML(req.Content)
	if err != nil {
		return nil, fmt.Errorf("render content: %w", err)
	}

	body := &postBody{
		Title:      req.Title,
		Content:    html,
		Excerpt:    req.Excerpt,
		Categories: req.Categories,
		Tags:       req.Tags,
	}

	status, scheduleAt := resolveStatus(req, time.Now())
	body.Status = status
	if scheduleAt != nil {
		body.Date = scheduleAt.Format(wpDateLayout)
		body.DateGMT = scheduleAt.UTC().Format(wpDateLayout)
	}

	body.FeaturedMedia = req.FeaturedMediaID
	if body.FeaturedMedia == 0 && req.FeaturedImageURL != "" {
		media, uploadErr := c.UploadFromURL(ctx, creds, req.FeaturedImageURL)
		if uploadErr != nil {
			c.logger.Warn("thumbnail upload failed, publishing without featured image",
				logger.String("image_url", req.FeaturedImageURL),
				logger.Error(uploadErr),
			)
		} else {
			body.FeaturedMedia = media.MediaID
		}
	}

	return body, nil
}

// resolveStatus maps the caller's intent to WordPress status vocabulary. A
// schedule instant already in the past becomes an immediate publish so the
// post never sits in a stuck "future" state.
func resolveStatus(req PublishRequest, now time.Time) (string, *time.Time) {
	switch req.Status {
	case StatusDraft:
		return "draft", nil
	case StatusSchedule:
		if req.ScheduleAt == nil || !req.ScheduleAt.After(now) {
			return "publish", nil
		}
		return "future", req.ScheduleAt
	case StatusPublish:
		return "publish", nil
	default:
		return "draft", nil
	}
}
