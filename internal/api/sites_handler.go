package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/models"
)

// listSites returns sites, optionally filtered by user and enabled state.
func (r *Router) listSites(c *gin.Context) {
	userID := c.Query("user_id")
	enabledOnly := c.Query("enabled") == "true"

	sites, err := r.sites.List(c.Request.Context(), userID, enabledOnly)
	if err != nil {
		r.logger.Error("failed to list sites", logger.Error(err))
		handleRepositoryError(c, err, "site", "list")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sites": sites,
		"count": len(sites),
	})
}

// createSite registers a new WordPress site.
func (r *Router) createSite(c *gin.Context) {
	var req models.SiteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site, err := r.sites.Create(c.Request.Context(), &req)
	if err != nil {
		r.logger.Error("failed to create site", logger.String("name", req.Name), logger.Error(err))
		handleRepositoryError(c, err, "site", "create")
		return
	}

	c.JSON(http.StatusCreated, site)
}

func (r *Router) getSite(c *gin.Context) {
	id, ok := parseUUID(c, "id", "site")
	if !ok {
		return
	}

	site, err := r.sites.GetByID(c.Request.Context(), id)
	if err != nil {
		handleRepositoryError(c, err, "site", "get")
		return
	}

	c.JSON(http.StatusOK, site)
}

func (r *Router) updateSite(c *gin.Context) {
	id, ok := parseUUID(c, "id", "site")
	if !ok {
		return
	}

	var req models.SiteUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site, err := r.sites.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleRepositoryError(c, err, "site", "update")
		return
	}

	c.JSON(http.StatusOK, site)
}

func (r *Router) deleteSite(c *gin.Context) {
	id, ok := parseUUID(c, "id", "site")
	if !ok {
		return
	}

	if err := r.sites.Delete(c.Request.Context(), id); err != nil {
		handleRepositoryError(c, err, "site", "delete")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "site deleted"})
}
