// Package publisher orchestrates one article publish: load the article and
// site credentials, upload media, embed images, publish the post and persist
// the outcome. The generated content is persisted locally no matter what the
// remote side does.
package publisher

import (
	"context"

	"github.com/google/uuid"

	"github.com/draftwise/wp-publisher/internal/metrics"
	"github.com/draftwise/wp-publisher/internal/models"
	"github.com/draftwise/wp-publisher/internal/store"
	"github.com/draftwise/wp-publisher/internal/wordpress"
)

// ArticleStore is the article document collection.
type ArticleStore interface {
	GetByID(ctx context.Context, id string) (*models.Article, error)
	UpdatePublishFields(ctx context.Context, id string, fields store.PublishFields) error
}

// SiteStore resolves site credentials.
type SiteStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error)
}

// CMSClient is the remote publishing surface the service depends on.
type CMSClient interface {
	Publish(ctx context.Context, creds wordpress.Credentials, req wordpress.PublishRequest) (*wordpress.RemotePostResult, error)
	UploadFromURL(ctx context.Context, creds wordpress.Credentials, imageURL string) (*wordpress.UploadedMedia, error)
	UploadFromBase64(ctx context.Context, creds wordpress.Credentials, payload, filename, altText string) (*wordpress.UploadedMedia, error)
}

// MetricsTracker records publish outcomes.
type MetricsTracker interface {
	IncrementPublished(ctx context.Context, siteID string) error
	IncrementFailed(ctx context.Context, siteID string) error
	AddRecentPost(ctx context.Context, post metrics.RecentPost) error
}
