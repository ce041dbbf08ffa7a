package wordpress

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/transport"
)

// maxImageBytes bounds how much of a source image we are willing to buffer.
const maxImageBytes = 32 << 20

// UploadFromURL downloads a publicly reachable image and pushes it into the
// site's media library. The download is anonymous; only the media POST is
// authenticated.
func (c *Client) UploadFromURL(ctx context.Context, creds Credentials, imageURL string) (*UploadedMedia, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	creds = creds.normalize()

	resp, err := c.caller.Do(ctx, transport.Request{
		Method: http.MethodGet,
		URL:    imageURL,
		Binary: true,
		Label:  "download_image",
	})
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, transport.ParseHTTPError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	ext := extensionFor(contentType)
	if contentType == "" {
		contentType = "image/jpeg"
	}
	filename := fmt.Sprintf("image-%d%s", time.Now().UnixNano(), ext)

	return c.uploadMedia(ctx, creds, data, contentType, filename, "")
}

// UploadFromBase64 decodes a base64 image payload (optionally a data: URI)
// and pushes it into the media library. When altText is supplied it is set on
// the created attachment as a best-effort second call; its failure never
// fails the upload.
func (c *Client) UploadFromBase64(ctx context.Context, creds Credentials, payload, filename, altText string) (*UploadedMedia, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	creds = creds.normalize()

	contentType, raw := splitDataURI(payload)
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}

	if filename == "" {
		filename = fmt.Sprintf("image-%d%s", time.Now().UnixNano(), extensionFor(contentType))
	}

	media, err := c.uploadMedia(ctx, creds, data, contentType, filename, altText)
	if err != nil {
		return nil, err
	}

	if altText != "" {
		c.setAltText(ctx, creds, media.MediaID, altText)
		media.AltText = altText
	}
	return media, nil
}

// uploadMedia POSTs raw image bytes to the media endpoint.
func (c *Client) uploadMedia(ctx context.Context, creds Credentials, data []byte, contentType, filename, altText string) (*UploadedMedia, error) {
	header := authHeader(creds)
	header.Set("Content-Type", contentType)
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	resp, err := c.caller.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    endpoint(creds, "/media"),
		Header: header,
		Body:   data,
		Binary: true,
		Label:  "upload_media",
	})
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, transport.ParseHTTPError(resp)
	}

	var media UploadedMedia
	if decodeErr := json.NewDecoder(resp.Body).Decode(&media); decodeErr != nil {
		return nil, fmt.Errorf("decode media response: %w", decodeErr)
	}

	c.logger.Info("uploaded media",
		logger.String("site", creds.BaseURL),
		logger.String("filename", filename),
		logger.Int64("media_id", media.MediaID),
	)
	return &media, nil
}

// setAltText annotates an attachment with alt text. Best-effort: failures are
// logged and swallowed because the media object already exists.
func (c *Client) setAltText(ctx context.Context, creds Credentials, mediaID int64, altText string) {
	body, err := json.Marshal(map[string]string{"alt_text": altText})
	if err != nil {
		return
	}

	resp, err := c.caller.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    endpoint(creds, fmt.Sprintf("/media/%d", mediaID)),
		Header: jsonAuthHeader(creds),
		Body:   body,
		Label:  "set_alt_text",
	})
	if err != nil {
		c.logger.Warn("failed to set media alt text",
			logger.Int64("media_id", mediaID),
			logger.Error(err),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("remote rejected media alt text",
			logger.Int64("media_id", mediaID),
			logger.Int("status_code", resp.StatusCode),
		)
	}
}

func extensionFor(contentType string) string {
	if strings.Contains(contentType, "png") {
		return ".png"
	}
	return ".jpg"
}

// splitDataURI strips a data: URI prefix, returning the content type declared
// in the prefix (jpeg fallback) and the raw base64 payload.
func splitDataURI(payload string) (contentType, raw string) {
	contentType = "image/jpeg"
	raw = payload

	if !strings.HasPrefix(payload, "data:") {
		return contentType, raw
	}
	comma := strings.Index(payload, ",")
	if comma < 0 {
		return contentType, raw
	}

	meta := payload[len("data:"):comma]
	raw = payload[comma+1:]
	if semi := strings.Index(meta, ";"); semi >= 0 {
		meta = meta[:semi]
	}
	if meta != "" {
		contentType = meta
	}
	return contentType, raw
}
