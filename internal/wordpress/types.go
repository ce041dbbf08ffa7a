package wordpress

import (
	"errors"
	"strings"
	"time"

	"github.com/draftwise/wp-publisher/internal/models"
)

// Sentinel errors for expected failure modes. Callers branch on these rather
// than on panics or opaque strings.
var (
	// ErrMissingCredentials is returned before any network call when the
	// site URL, username or application password is blank.
	ErrMissingCredentials = errors.New("missing site credentials")
	// ErrPostNotFound is returned when an update targets a post the remote
	// site no longer has. The caller decides whether to re-create.
	ErrPostNotFound = errors.New("remote post not found")
)

// Credentials identify a WordPress site and the application password used to
// publish to it. Borrowed per call; never mutated.
type Credentials struct {
	BaseURL             string
	Username            string
	ApplicationPassword string
}

// Validate reports whether the credentials are usable at all.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" ||
		strings.TrimSpace(c.Username) == "" ||
		strings.TrimSpace(c.ApplicationPassword) == "" {
		return ErrMissingCredentials
	}
	return nil
}

// normalize returns a copy with a scheme prefix added if missing and the
// trailing slash stripped.
func (c Credentials) normalize() Credentials {
	url := strings.TrimSpace(c.BaseURL)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	c.BaseURL = strings.TrimRight(url, "/")
	return c
}

// DesiredStatus is the caller's publication intent.
type DesiredStatus string

const (
	// StatusPublish publishes immediately.
	StatusPublish DesiredStatus = "publish"
	// StatusDraft saves a remote draft.
	StatusDraft DesiredStatus = "draft"
	// StatusSchedule schedules for ScheduleAt. A past instant is corrected
	// to an immediate publish.
	StatusSchedule DesiredStatus = "schedule"
)

// PublishRequest describes one idempotent create-or-update post call.
// ExistingPostID is the sole discriminator between create and update:
// re-submitting with the same id updates in place rather than duplicating.
type PublishRequest struct {
	Title   string
	Content string // markdown or pre-rendered HTML
	Excerpt string

	Status     DesiredStatus
	ScheduleAt *time.Time

	ExistingPostID int64

	// FeaturedMediaID references an already-uploaded attachment. When zero
	// and FeaturedImageURL is set, the image is uploaded first; a failed
	// upload is non-fatal and publishing proceeds without a thumbnail.
	FeaturedMediaID  int64
	FeaturedImageURL string

	Categories []int
	Tags       []int
}

// RemotePostResult is the durable handle to a published post.
type RemotePostResult struct {
	PostID int64  `json:"id"`
	URL    string `json:"link"`
}

// UploadedMedia is the handle to an attachment in the media library.
type UploadedMedia struct {
	MediaID   int64  `json:"id"`
	SourceURL string `json:"source_url"`
	AltText   string `json:"-"`
}

// RemotePostStatus is the authoritative status of a post fetched fresh from
// the remote site, in WordPress's own vocabulary (publish, future, draft,
// pending, private, trash).
type RemotePostStatus struct {
	Status string `json:"status"`
	URL    string `json:"link"`
}

// MapStatus maps WordPress status vocabulary into the local vocabulary.
// Unknown values default to draft so out-of-band edits never crash a batch.
func MapStatus(remote string) models.ArticleStatus {
	switch remote {
	case "publish", "private":
		return models.StatusPublished
	case "future":
		return models.StatusScheduled
	case "draft", "pending":
		return models.StatusDraft
	default:
		return models.StatusDraft
	}
}
