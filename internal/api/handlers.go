package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/models"
	"github.com/draftwise/wp-publisher/internal/wordpress"
)

// publishArticle triggers one synchronous publish of the given article.
func (r *Router) publishArticle(c *gin.Context) {
	articleID := c.Param("id")
	if articleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article ID is required"})
		return
	}

	result, err := r.publishSvc.PublishArticle(c.Request.Context(), articleID)
	if err != nil {
		r.logger.Error("publish request failed",
			logger.String("article_id", articleID),
			logger.Error(err),
		)
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		case errors.Is(err, models.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, wordpress.ErrMissingCredentials):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "site credentials are incomplete"})
		case errors.Is(err, wordpress.ErrPostNotFound):
			c.JSON(http.StatusConflict, gin.H{"error": "remote post no longer exists; stored post id cleared, retry to recreate"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "publish failed: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article_id": articleID,
		"wp_post_id": result.PostID,
		"wp_url":     result.URL,
	})
}

// runReconcile triggers an on-demand reconciliation run.
func (r *Router) runReconcile(c *gin.Context) {
	result, err := r.reconciler.Run(c.Request.Context())
	if err != nil {
		r.logger.Error("reconciliation run failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// getStatsOverview aggregates publish counters across all known sites.
func (r *Router) getStatsOverview(c *gin.Context) {
	sites, err := r.sites.List(c.Request.Context(), "", false)
	if err != nil {
		r.logger.Error("failed to list sites for stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sites"})
		return
	}

	siteIDs := make([]string, 0, len(sites))
	for _, site := range sites {
		siteIDs = append(siteIDs, site.ID.String())
	}

	stats, err := r.tracker.GetStats(c.Request.Context(), siteIDs)
	if err != nil {
		r.logger.Error("failed to load stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// getRecentPosts returns the most recently published posts.
func (r *Router) getRecentPosts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	posts, err := r.tracker.GetRecentPosts(c.Request.Context(), limit)
	if err != nil {
		r.logger.Error("failed to load recent posts", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recent posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"count": len(posts),
	})
}
