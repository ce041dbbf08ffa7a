package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/draftwise/wp-publisher/internal/content"
	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/metrics"
	"github.com/draftwise/wp-publisher/internal/models"
	"github.com/draftwise/wp-publisher/internal/store"
	"github.com/draftwise/wp-publisher/internal/wordpress"
)

// Service publishes articles to their target WordPress sites.
type Service struct {
	articles ArticleStore
	sites    SiteStore
	wp       CMSClient
	metrics  MetricsTracker
	limiter  *rate.Limiter
	logger   logger.Logger
	tracer   trace.Tracer
}

// Deps contains the service dependencies.
type Deps struct {
	Articles ArticleStore
	Sites    SiteStore
	WP       CMSClient
	Metrics  MetricsTracker
	Logger   logger.Logger
	// PublishRPS bounds outbound publish calls; media endpoints on shared
	// hosting are rate sensitive.
	PublishRPS int
}

// NewService creates the publishing service.
func NewService(deps Deps) *Service {
	rps := deps.PublishRPS
	if rps <= 0 {
		rps = 2
	}

	return &Service{
		articles: deps.Articles,
		sites:    deps.Sites,
		wp:       deps.WP,
		metrics:  deps.Metrics,
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
		logger:   deps.Logger,
		tracer:   otel.Tracer("wp-publisher"),
	}
}

// PublishArticle performs one synchronous publish for the given article.
// On success the article document is updated with {wp_post_id, wp_url,
// status}; on failure it is annotated with the error and the content stays
// intact so the user can retry without regenerating.
func (s *Service) PublishArticle(ctx context.Context, articleID string) (*wordpress.RemotePostResult, error) {
	ctx, span := s.tracer.Start(ctx, "publisher.publish_article",
		trace.WithAttributes(attribute.String("article_id", articleID)))
	defer span.End()

	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}

	site, err := s.resolveSite(ctx, article.SiteID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("site_id", site.ID.String()))

	creds := wordpress.Credentials{
		BaseURL:             site.URL,
		Username:            site.Username,
		ApplicationPassword: site.ApplicationPassword,
	}
	if err := creds.Validate(); err != nil {
		return nil, s.recordFailure(ctx, article, err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body := s.embedInlineImages(ctx, creds, article)

	status, scheduleAt := desiredStatus(article)
	result, err := s.wp.Publish(ctx, creds, wordpress.PublishRequest{
		Title:            article.Title,
		Content:          body,
		Excerpt:          article.Excerpt,
		Status:           status,
		ScheduleAt:       scheduleAt,
		ExistingPostID:   article.WPPostID,
		FeaturedImageURL: article.ThumbnailURL,
		Categories:       article.Categories,
		Tags:             article.Tags,
	})
	if err != nil {
		return nil, s.recordFailure(ctx, article, err)
	}

	localStatus := localStatusAfter(status, scheduleAt)
	if persistErr := s.articles.UpdatePublishFields(ctx, article.ID, store.PublishFields{
		WPPostID: result.PostID,
		WPURL:    result.URL,
		Status:   localStatus,
	}); persistErr != nil {
		// The remote post exists; reconciliation will converge local state.
		s.logger.Error("failed to persist publish result",
			logger.String("article_id", article.ID),
			logger.Int64("wp_post_id", result.PostID),
			logger.Error(persistErr),
		)
	}

	s.trackSuccess(ctx, article, site, result)

	s.logger.Info("article published",
		logger.String("article_id", article.ID),
		logger.String("site_id", site.ID.String()),
		logger.Int64("wp_post_id", result.PostID),
		logger.String("wp_url", result.URL),
		logger.String("status", string(localStatus)),
	)
	return result, nil
}

func (s *Service) resolveSite(ctx context.Context, siteID string) (*models.Site, error) {
	id, err := uuid.Parse(siteID)
	if err != nil {
		return nil, fmt.Errorf("%w: site id %q", models.ErrInvalidInput, siteID)
	}

	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load site: %w", err)
	}
	return site, nil
}

// embedInlineImages uploads the article's inline images sequentially and
// spaces them through the content. Uploads are sequential on purpose: each
// may retry, the media endpoint is rate sensitive, and placement depends on
// upload order. A failed upload drops that image and publishing continues.
func (s *Service) embedInlineImages(ctx context.Context, creds wordpress.Credentials, article *models.Article) string {
	if len(article.Images) == 0 {
		return article.Content
	}

	embedded := make([]content.EmbeddedImage, 0, len(article.Images))
	for i, img := range article.Images {
		var media *wordpress.UploadedMedia
		var err error

		switch {
		case img.Base64 != "":
			media, err = s.wp.UploadFromBase64(ctx, creds, img.Base64, img.Filename, img.AltText)
		case img.URL != "":
			media, err = s.wp.UploadFromURL(ctx, creds, img.URL)
		default:
			continue
		}

		if err != nil {
			s.logger.Warn("inline image upload failed, skipping",
				logger.String("article_id", article.ID),
				logger.Int("image_index", i),
				logger.Error(err),
			)
			continue
		}

		embedded = append(embedded, content.EmbeddedImage{
			URL:     media.SourceURL,
			AltText: img.AltText,
		})
	}

	return content.EmbedImages(article.Content, embedded)
}

// recordFailure annotates the article with the publish error without touching
// the content. An update that hit a deleted remote post also clears the
// stored post id so the next attempt takes the create path explicitly.
func (s *Service) recordFailure(ctx context.Context, article *models.Article, cause error) error {
	fields := store.PublishFields{
		WPPostID:       article.WPPostID,
		WPURL:          article.WPURL,
		Status:         models.StatusPublishFailed,
		WPPublishError: cause.Error(),
	}
	if errors.Is(cause, wordpress.ErrPostNotFound) {
		fields.WPPostID = 0
		fields.WPURL = ""
	}

	if persistErr := s.articles.UpdatePublishFields(ctx, article.ID, fields); persistErr != nil {
		s.logger.Error("failed to persist publish error",
			logger.String("article_id", article.ID),
			logger.Error(persistErr),
		)
	}

	if s.metrics != nil {
		if metricErr := s.metrics.IncrementFailed(ctx, article.SiteID); metricErr != nil {
			s.logger.Warn("failed to track publish failure", logger.Error(metricErr))
		}
	}

	return fmt.Errorf("publish article %s: %w", article.ID, cause)
}

func (s *Service) trackSuccess(ctx context.Context, article *models.Article, site *models.Site, result *wordpress.RemotePostResult) {
	if s.metrics == nil {
		return
	}

	if err := s.metrics.IncrementPublished(ctx, site.ID.String()); err != nil {
		s.logger.Warn("failed to track published article", logger.Error(err))
	}
	if err := s.metrics.AddRecentPost(ctx, metrics.RecentPost{
		ArticleID: article.ID,
		SiteID:    site.ID.String(),
		Title:     article.Title,
		URL:       result.URL,
		PostedAt:  time.Now(),
	}); err != nil {
		s.logger.Warn("failed to track recent post", logger.Error(err))
	}
}

// desiredStatus translates the article's local status into publish intent.
func desiredStatus(article *models.Article) (wordpress.DesiredStatus, *time.Time) {
	switch article.Status {
	case models.StatusPublished:
		return wordpress.StatusPublish, nil
	case models.StatusScheduled:
		return wordpress.StatusSchedule, article.ScheduledAt
	default:
		return wordpress.StatusDraft, nil
	}
}

// localStatusAfter is the status persisted after a successful publish,
// mirroring the past-due schedule correction the client applies.
func localStatusAfter(status wordpress.DesiredStatus, scheduleAt *time.Time) models.ArticleStatus {
	switch status {
	case wordpress.StatusPublish:
		return models.StatusPublished
	case wordpress.StatusSchedule:
		if scheduleAt != nil && scheduleAt.After(time.Now()) {
			return models.StatusScheduled
		}
		return models.StatusPublished
	default:
		return models.StatusDraft
	}
}
