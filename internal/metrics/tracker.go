package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/draftwise/wp-publisher/internal/logger"
)

// RecentPost is one entry in the recent posts list.
type RecentPost struct {
	ArticleID string    `json:"article_id"`
	SiteID    string    `json:"site_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	PostedAt  time.Time `json:"posted_at"`
}

// SiteStats aggregates counters for one site.
type SiteStats struct {
	SiteID     string `json:"site_id"`
	Published  int64  `json:"published"`
	Failed     int64  `json:"failed"`
	Reconciled int64  `json:"reconciled"`
}

// Stats is the dashboard-facing aggregate.
type Stats struct {
	Sites          []SiteStats `json:"sites"`
	TotalPublished int64       `json:"total_published"`
	TotalFailed    int64       `json:"total_failed"`
	LastReconcile  time.Time   `json:"last_reconcile"`
}

// Tracker records publish outcomes in Redis with a TTL so stale sites age out.
type Tracker struct {
	client redis.UniversalClient
	logger logger.Logger
}

// NewTracker creates a metrics tracker.
func NewTracker(client redis.UniversalClient, log logger.Logger) *Tracker {
	return &Tracker{client: client, logger: log}
}

// IncrementPublished increments the published counter for a site.
func (t *Tracker) IncrementPublished(ctx context.Context, siteID string) error {
	return t.increment(ctx, publishedKey(siteID), "published")
}

// IncrementFailed increments the failed counter for a site.
func (t *Tracker) IncrementFailed(ctx context.Context, siteID string) error {
	return t.increment(ctx, failedKey(siteID), "failed")
}

// IncrementReconciled increments the reconciled counter for a site.
func (t *Tracker) IncrementReconciled(ctx context.Context, siteID string) error {
	return t.increment(ctx, reconciledKey(siteID), "reconciled")
}

func (t *Tracker) increment(ctx context.Context, key, kind string) error {
	ttl := metricsTTLDays * hoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to increment counter",
			logger.String("kind", kind),
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return fmt.Errorf("increment %s counter: %w", kind, err)
	}
	return nil
}

// AddRecentPost pushes a post onto the capped recent posts list.
func (t *Tracker) AddRecentPost(ctx context.Context, post RecentPost) error {
	if post.PostedAt.IsZero() {
		post.PostedAt = time.Now()
	}

	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal recent post: %w", err)
	}

	ttl := metricsTTLDays * hoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.LPush(ctx, KeyRecentPosts, data)
	pipe.LTrim(ctx, KeyRecentPosts, 0, MaxRecentPosts-1)
	pipe.Expire(ctx, KeyRecentPosts, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to add recent post",
			logger.String("article_id", post.ArticleID),
			logger.Error(err),
		)
		return fmt.Errorf("add recent post: %w", err)
	}
	return nil
}

// GetRecentPosts returns up to limit recently published posts.
func (t *Tracker) GetRecentPosts(ctx context.Context, limit int) ([]RecentPost, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxRecentPosts {
		limit = MaxRecentPosts
	}

	results, err := t.client.LRange(ctx, KeyRecentPosts, 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []RecentPost{}, nil
		}
		return nil, fmt.Errorf("get recent posts: %w", err)
	}

	posts := make([]RecentPost, 0, len(results))
	for _, result := range results {
		var post RecentPost
		if unmarshalErr := json.Unmarshal([]byte(result), &post); unmarshalErr != nil {
			t.logger.Warn("failed to unmarshal recent post", logger.Error(unmarshalErr))
			continue
		}
		posts = append(posts, post)
	}

	return posts, nil
}

// GetStats aggregates counters for the given sites with a pipelined read.
func (t *Tracker) GetStats(ctx context.Context, siteIDs []string) (*Stats, error) {
	pipe := t.client.Pipeline()

	publishedCmds := make(map[string]*redis.StringCmd, len(siteIDs))
	failedCmds := make(map[string]*redis.StringCmd, len(siteIDs))
	reconciledCmds := make(map[string]*redis.StringCmd, len(siteIDs))
	for _, id := range siteIDs {
		publishedCmds[id] = pipe.Get(ctx, publishedKey(id))
		failedCmds[id] = pipe.Get(ctx, failedKey(id))
		reconciledCmds[id] = pipe.Get(ctx, reconciledKey(id))
	}
	lastReconcileCmd := pipe.Get(ctx, KeyLastReconcile)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("execute pipeline: %w", err)
	}

	stats := &Stats{Sites: make([]SiteStats, 0, len(siteIDs))}
	for _, id := range siteIDs {
		siteStats := SiteStats{SiteID: id}
		if v, err := publishedCmds[id].Int64(); err == nil {
			siteStats.Published = v
			stats.TotalPublished += v
		}
		if v, err := failedCmds[id].Int64(); err == nil {
			siteStats.Failed = v
			stats.TotalFailed += v
		}
		if v, err := reconciledCmds[id].Int64(); err == nil {
			siteStats.Reconciled = v
		}
		stats.Sites = append(stats.Sites, siteStats)
	}

	if raw, err := lastReconcileCmd.Result(); err == nil && raw != "" {
		if ts, parseErr := time.Parse(time.RFC3339, raw); parseErr == nil {
			stats.LastReconcile = ts
		}
	}

	return stats, nil
}

// UpdateLastReconcile stamps the last reconciliation run.
func (t *Tracker) UpdateLastReconcile(ctx context.Context) error {
	now := time.Now().Format(time.RFC3339)
	if err := t.client.Set(ctx, KeyLastReconcile, now, 0).Err(); err != nil {
		t.logger.Warn("failed to update last reconcile timestamp", logger.Error(err))
		return fmt.Errorf("update last reconcile: %w", err)
	}
	return nil
}
