// Package reconciler re-fetches authoritative post state from WordPress and
// folds out-of-band edits back into the local article store.
package reconciler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/models"
	"github.com/draftwise/wp-publisher/internal/store"
	"github.com/draftwise/wp-publisher/internal/wordpress"
)

// ArticleStore is the subset of the article store the reconciler needs.
type ArticleStore interface {
	ListRemote(ctx context.Context) ([]models.Article, error)
	UpdatePublishFields(ctx context.Context, id string, fields store.PublishFields) error
}

// SiteStore resolves site credentials.
type SiteStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error)
}

// StatusFetcher fetches live post status from the remote site.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, creds wordpress.Credentials, postID int64) (*wordpress.RemotePostStatus, error)
}

// MetricsTracker records reconciliation outcomes.
type MetricsTracker interface {
	IncrementReconciled(ctx context.Context, siteID string) error
	UpdateLastReconcile(ctx context.Context) error
}

// Result summarizes one reconciliation run.
type Result struct {
	Updated   []string `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Errors    int      `json:"errors"`
}

// Reconciler drives batch reconciliation runs.
type Reconciler struct {
	articles ArticleStore
	sites    SiteStore
	wp       StatusFetcher
	metrics  MetricsTracker
	logger   logger.Logger
}

// New creates a reconciler.
func New(articles ArticleStore, sites SiteStore, wp StatusFetcher, metrics MetricsTracker, log logger.Logger) *Reconciler {
	return &Reconciler{
		articles: articles,
		sites:    sites,
		wp:       wp,
		metrics:  metrics,
		logger:   log,
	}
}

// Run reconciles every article carrying a remote post id. One article's
// failure never aborts the batch; each failure increments the error counter
// and the walk moves on. Site credentials are cached per run only.
func (r *Reconciler) Run(ctx context.Context) (*Result, error) {
	articles, err := r.articles.ListRemote(ctx)
	if err != nil {
		return nil, fmt.Errorf("list remote articles: %w", err)
	}

	result := &Result{Updated: []string{}}
	siteCache := make(map[string]*models.Site)

	for i := range articles {
		article := &articles[i]
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		r.reconcileOne(ctx, article, siteCache, result)
	}

	if r.metrics != nil {
		if err := r.metrics.UpdateLastReconcile(ctx); err != nil {
			r.logger.Warn("failed to stamp reconcile run", logger.Error(err))
		}
	}

	r.logger.Info("reconciliation run complete",
		logger.Int("total", len(articles)),
		logger.Int("updated", len(result.Updated)),
		logger.Int("unchanged", result.Unchanged),
		logger.Int("errors", result.Errors),
	)
	return result, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, article *models.Article, siteCache map[string]*models.Site, result *Result) {
	site, err := r.siteFor(ctx, article.SiteID, siteCache)
	if err != nil {
		r.logger.Warn("skipping article: cannot resolve site",
			logger.String("article_id", article.ID),
			logger.String("site_id", article.SiteID),
			logger.Error(err),
		)
		result.Errors++
		return
	}

	creds := wordpress.Credentials{
		BaseURL:             site.URL,
		Username:            site.Username,
		ApplicationPassword: site.ApplicationPassword,
	}

	remote, err := r.wp.FetchStatus(ctx, creds, article.WPPostID)
	if err != nil {
		r.logger.Warn("status fetch failed",
			logger.String("article_id", article.ID),
			logger.Int64("wp_post_id", article.WPPostID),
			logger.Error(err),
		)
		result.Errors++
		return
	}

	mapped := wordpress.MapStatus(remote.Status)
	if mapped == article.Status && remote.URL == article.WPURL {
		result.Unchanged++
		return
	}

	if err := r.articles.UpdatePublishFields(ctx, article.ID, store.PublishFields{
		WPPostID: article.WPPostID,
		WPURL:    remote.URL,
		Status:   mapped,
	}); err != nil {
		r.logger.Error("failed to persist reconciled status",
			logger.String("article_id", article.ID),
			logger.Error(err),
		)
		result.Errors++
		return
	}

	if r.metrics != nil {
		if metricErr := r.metrics.IncrementReconciled(ctx, article.SiteID); metricErr != nil {
			r.logger.Warn("failed to track reconciled article", logger.Error(metricErr))
		}
	}

	r.logger.Info("article drifted, status reconciled",
		logger.String("article_id", article.ID),
		logger.String("old_status", string(article.Status)),
		logger.String("new_status", string(mapped)),
		logger.String("remote_status", remote.Status),
	)
	result.Updated = append(result.Updated, article.ID)
}

func (r *Reconciler) siteFor(ctx context.Context, siteID string, cache map[string]*models.Site) (*models.Site, error) {
	if site, ok := cache[siteID]; ok {
		return site, nil
	}

	id, err := uuid.Parse(siteID)
	if err != nil {
		return nil, fmt.Errorf("%w: site id %q", models.ErrInvalidInput, siteID)
	}

	site, err := r.sites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cache[siteID] = site
	return site, nil
}
