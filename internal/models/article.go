package models

import "time"

// ArticleStatus is the local publication status vocabulary.
type ArticleStatus string

const (
	// StatusDraft is an article saved locally and/or as a remote draft.
	StatusDraft ArticleStatus = "draft"
	// StatusScheduled is an article scheduled for future publication.
	StatusScheduled ArticleStatus = "scheduled"
	// StatusPublished is an article live on the remote site.
	StatusPublished ArticleStatus = "published"
	// StatusPublishFailed is an article whose last remote publish attempt
	// failed. The content is retained locally so the user can retry.
	StatusPublishFailed ArticleStatus = "publish_failed"
)

// ArticleImage is an image attached to an article, either by remote URL or as
// an inline base64 payload produced by the generation pipeline.
type ArticleImage struct {
	URL      string `json:"url,omitempty"`
	Base64   string `json:"base64,omitempty"`
	Filename string `json:"filename,omitempty"`
	AltText  string `json:"alt_text,omitempty"`
}

// Article is the document stored per generated article. The publishing layer
// reads title/content/schedule fields and writes back wp_post_id, wp_url,
// status and wp_publish_error; everything else belongs to other subsystems.
type Article struct {
	ID           string         `json:"id"`
	SiteID       string         `json:"site_id"`
	Title        string         `json:"title"`
	Content      string         `json:"content"` // markdown or pre-rendered HTML
	Excerpt      string         `json:"excerpt,omitempty"`
	Status       ArticleStatus  `json:"status"`
	ScheduledAt  *time.Time     `json:"scheduled_at,omitempty"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	Images       []ArticleImage `json:"images,omitempty"`
	Categories   []int          `json:"categories,omitempty"`
	Tags         []int          `json:"tags,omitempty"`

	WPPostID       int64  `json:"wp_post_id,omitempty"`
	WPURL          string `json:"wp_url,omitempty"`
	WPPublishError string `json:"wp_publish_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
